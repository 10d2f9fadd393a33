package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-admin-secret"

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedEndpoint(t *testing.T) http.Handler {
	t.Helper()
	return AdminJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AdminClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "ops", claims.Subject)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminJWTAcceptsValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/clinic-1/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminJWTRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/clinic-1/reminders", nil)
	rec := httptest.NewRecorder()

	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsWrongSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/clinic-1/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsExpiredToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/clinic-1/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(-time.Hour)))
	rec := httptest.NewRecorder()

	protectedEndpoint(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTDisabledWithoutSecret(t *testing.T) {
	handler := AdminJWT("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/clinic-1/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
