package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapagenda/zapagenda-backend/internal/http/handlers"
	httpmiddleware "github.com/zapagenda/zapagenda-backend/internal/http/middleware"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	Webhooks        *handlers.WhatsAppWebhookHandler
	Admin           *handlers.AdminHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Webhooks.HealthCheck)
		public.Route("/webhooks/whatsapp", func(wh chi.Router) {
			wh.Get("/", cfg.Webhooks.HandleVerify)
			wh.Post("/", cfg.Webhooks.HandleEvents)
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Admin != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/clinics/{clinicID}", func(clinic chi.Router) {
				clinic.Use(httpmiddleware.ClinicScope)
				clinic.Get("/conversations/{recipient}", cfg.Admin.ListConversation)
				clinic.Delete("/sessions/{recipient}", cfg.Admin.ResetSession)
				clinic.Get("/reminders", cfg.Admin.ListReminders)
				clinic.Put("/templates/{key}", cfg.Admin.UpsertTemplate)
			})
		})
	}

	return r
}
