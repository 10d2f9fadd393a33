package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	httpmiddleware "github.com/zapagenda/zapagenda-backend/internal/http/middleware"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/reminders"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

type adminFixture struct {
	server   *httptest.Server
	sessions *session.Store
	events   pgxmock.PgxPoolIface
	store    pgxmock.PgxPoolIface
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := session.NewStore(client, nil)

	eventsMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(eventsMock.Close)
	storeMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(storeMock.Close)

	directory := &stubWebhookDirectory{clinics: map[string]*clinics.Clinic{
		"pn-100": {ID: "clinic-1", Name: "Clínica Bela Pele", WhatsAppPhoneNumberID: "pn-100"},
	}}

	admin := NewAdminHandler(AdminConfig{
		Directory: directory,
		Events:    ledger.NewStore(eventsMock),
		Sessions:  sessions,
		Reminders: reminders.NewStore(storeMock),
		Templates: templates.NewStore(storeMock),
		Logger:    logging.Default(),
	})

	r := chi.NewRouter()
	r.Route("/admin/clinics/{clinicID}", func(clinic chi.Router) {
		clinic.Use(httpmiddleware.ClinicScope)
		clinic.Get("/conversations/{recipient}", admin.ListConversation)
		clinic.Delete("/sessions/{recipient}", admin.ResetSession)
		clinic.Get("/reminders", admin.ListReminders)
		clinic.Put("/templates/{key}", admin.UpsertTemplate)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &adminFixture{server: server, sessions: sessions, events: eventsMock, store: storeMock}
}

func (f *adminFixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAdminListConversation(t *testing.T) {
	f := newAdminFixture(t)

	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	f.events.ExpectQuery(`SELECT (.+) FROM \(`).
		WithArgs("clinic-1:5511999990000", 50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "recipient", "conversation_id", "message_id", "direction",
			"message_type", "content", "status", "provider_message_id", "metadata", "seq", "created_at",
		}).AddRow(
			uuid.New(), "clinic-1", "5511999990000", "clinic-1:5511999990000", uuid.NewString(), "inbound",
			"text", "oi", "received", "wamid.in1", []byte(`{}`), int64(1), now,
		))

	resp := f.do(t, http.MethodGet, "/admin/clinics/clinic-1/conversations/5511999990000", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		ConversationID string         `json:"conversation_id"`
		Events         []ledger.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "clinic-1:5511999990000", payload.ConversationID)
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "oi", payload.Events[0].Content)
}

func TestAdminListConversationUnknownClinic(t *testing.T) {
	f := newAdminFixture(t)

	resp := f.do(t, http.MethodGet, "/admin/clinics/nope/conversations/5511999990000", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminResetSessionDeletesState(t *testing.T) {
	f := newAdminFixture(t)

	sess := session.New("clinic-1", "5511999990000")
	require.NoError(t, f.sessions.Save(context.Background(), sess))

	resp := f.do(t, http.MethodDelete, "/admin/clinics/clinic-1/sessions/5511999990000", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	loaded, err := f.sessions.Load(context.Background(), "clinic-1", "5511999990000")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestAdminListReminders(t *testing.T) {
	f := newAdminFixture(t)

	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	f.store.ExpectQuery("SELECT (.+) FROM reminders").
		WithArgs("clinic-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "appointment_id", "recipient", "patient_name", "service_name",
			"starts_at", "send_at", "status", "sent_at", "coalesce", "created_at", "updated_at",
		}).AddRow(
			uuid.New(), "clinic-1", "appt-1", "5511999990000", "Maria", "Botox",
			now.Add(24*time.Hour), now, "pending", (*time.Time)(nil), "", now, now,
		))

	resp := f.do(t, http.MethodGet, "/admin/clinics/clinic-1/reminders", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Reminders []reminders.Reminder `json:"reminders"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Reminders, 1)
	assert.Equal(t, "appt-1", payload.Reminders[0].AppointmentID)
}

func TestAdminUpsertTemplate(t *testing.T) {
	f := newAdminFixture(t)

	f.store.ExpectExec("INSERT INTO message_templates").
		WithArgs("clinic-1", templates.KeyMainMenu, "Olá! Sou o assistente da {{clinic}}.", []byte(`null`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	resp := f.do(t, http.MethodPut, "/admin/clinics/clinic-1/templates/"+templates.KeyMainMenu,
		`{"body": "Olá! Sou o assistente da {{clinic}}."}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, f.store.ExpectationsWereMet())
}

func TestAdminUpsertTemplateUnknownKey(t *testing.T) {
	f := newAdminFixture(t)

	resp := f.do(t, http.MethodPut, "/admin/clinics/clinic-1/templates/not_a_key", `{"body": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
