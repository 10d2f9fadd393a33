package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/reminders"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/internal/tenancy"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// AdminHandler exposes the operator surface: conversation transcripts,
// session resets (which release handed-off conversations), reminder
// inspection, and per-clinic template overrides.
type AdminHandler struct {
	directory clinics.Directory
	events    *ledger.Store
	sessions  *session.Store
	reminders *reminders.Store
	templates *templates.Store
	logger    *logging.Logger
}

type AdminConfig struct {
	Directory clinics.Directory
	Events    *ledger.Store
	Sessions  *session.Store
	Reminders *reminders.Store
	Templates *templates.Store
	Logger    *logging.Logger
}

func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AdminHandler{
		directory: cfg.Directory,
		events:    cfg.Events,
		sessions:  cfg.Sessions,
		reminders: cfg.Reminders,
		templates: cfg.Templates,
		logger:    cfg.Logger,
	}
}

// requestClinicID reads the tenant set by the ClinicScope middleware,
// falling back to the route parameter for handlers mounted outside it.
func requestClinicID(r *http.Request) string {
	if id, ok := tenancy.ClinicIDFromContext(r.Context()); ok {
		return id
	}
	return chi.URLParam(r, "clinicID")
}

// ListConversation returns the event ledger for one (clinic, recipient)
// conversation in chronological order.
func (h *AdminHandler) ListConversation(w http.ResponseWriter, r *http.Request) {
	clinicID := requestClinicID(r)
	recipient := chi.URLParam(r, "recipient")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if _, err := h.directory.Get(r.Context(), clinicID); err != nil {
		h.clinicError(w, err)
		return
	}

	events, err := h.events.ListConversation(r.Context(), clinicID, recipient, limit)
	if err != nil {
		h.logger.Error("admin: list conversation failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": ledger.ConversationID(clinicID, recipient),
		"events":          events,
	})
}

// ResetSession wipes the dialog session, returning the conversation to the
// main menu. This is also how a human-handoff conversation is released back
// to the assistant.
func (h *AdminHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	clinicID := requestClinicID(r)
	recipient := chi.URLParam(r, "recipient")

	if _, err := h.directory.Get(r.Context(), clinicID); err != nil {
		h.clinicError(w, err)
		return
	}

	if err := h.sessions.Delete(r.Context(), clinicID, recipient); err != nil {
		h.logger.Error("admin: session reset failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("admin: session reset", "clinic_id", clinicID, "recipient", recipient)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ListReminders returns a clinic's reminders, most recent first.
func (h *AdminHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	clinicID := requestClinicID(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if _, err := h.directory.Get(r.Context(), clinicID); err != nil {
		h.clinicError(w, err)
		return
	}

	items, err := h.reminders.ListByClinic(r.Context(), clinicID, limit)
	if err != nil {
		h.logger.Error("admin: list reminders failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reminders": items})
}

// UpsertTemplate sets a clinic's override for one template key.
func (h *AdminHandler) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	clinicID := requestClinicID(r)
	key := chi.URLParam(r, "key")

	if _, ok := templates.Default(key); !ok {
		http.Error(w, "unknown template key", http.StatusBadRequest)
		return
	}
	if _, err := h.directory.Get(r.Context(), clinicID); err != nil {
		h.clinicError(w, err)
		return
	}

	var tmpl templates.Template
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	tmpl.Key = key

	if err := h.templates.Upsert(r.Context(), clinicID, tmpl); err != nil {
		h.logger.Error("admin: template upsert failed", "error", err, "clinic_id", clinicID, "key", key)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tmpl)
}

func (h *AdminHandler) clinicError(w http.ResponseWriter, err error) {
	if errors.Is(err, clinics.ErrNotFound) {
		http.Error(w, "clinic not found", http.StatusNotFound)
		return
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
