package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapagenda/zapagenda-backend/internal/tenancy"
)

// ClinicScope lifts the clinicID route parameter into the request context so
// downstream handlers and stores see the tenant without re-parsing the URL.
func ClinicScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if clinicID := chi.URLParam(r, "clinicID"); clinicID != "" {
			r = r.WithContext(tenancy.WithClinicID(r.Context(), clinicID))
		}
		next.ServeHTTP(w, r)
	})
}
