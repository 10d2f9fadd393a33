package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

const testRecipient = "5511999990000"

type sentMessage struct {
	kind     string
	to       string
	body     string
	buttons  []delivery.Button
	sections []delivery.Section
}

type fakeProvider struct {
	sent []sentMessage
	fail bool
}

func (p *fakeProvider) result() delivery.SendResult {
	if p.fail {
		return delivery.SendResult{MessageID: "msg-1", Status: delivery.SendStatusFailed, Error: "boom"}
	}
	return delivery.SendResult{MessageID: "msg-1", Status: delivery.SendStatusSent}
}

func (p *fakeProvider) SendText(ctx context.Context, to, body string) delivery.SendResult {
	p.sent = append(p.sent, sentMessage{kind: "text", to: to, body: body})
	return p.result()
}

func (p *fakeProvider) SendButtons(ctx context.Context, to, body string, buttons []delivery.Button) delivery.SendResult {
	p.sent = append(p.sent, sentMessage{kind: "buttons", to: to, body: body, buttons: buttons})
	return p.result()
}

func (p *fakeProvider) SendList(ctx context.Context, to, body, buttonLabel string, sections []delivery.Section) delivery.SendResult {
	p.sent = append(p.sent, sentMessage{kind: "list", to: to, body: body, sections: sections})
	return p.result()
}

func (p *fakeProvider) ParseIncoming(payload []byte) ([]delivery.InboundMessage, []delivery.StatusUpdate, error) {
	return nil, nil, nil
}

func (p *fakeProvider) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, p.sent)
	return p.sent[len(p.sent)-1]
}

type fakeBooking struct {
	services []booking.Service
	days     []string
	times    []string
	upcoming []booking.Appointment

	bookErr       error
	rescheduleErr error
	cancelErr     error

	booked      []booking.Request
	cancelled   []string
	rescheduled []string
}

func (b *fakeBooking) OpenDays(ctx context.Context, clinicID string, from time.Time, days int) ([]string, error) {
	return b.days, nil
}

func (b *fakeBooking) OpenTimes(ctx context.Context, clinicID, date string) ([]string, error) {
	return b.times, nil
}

func (b *fakeBooking) Book(ctx context.Context, req booking.Request) (*booking.Appointment, error) {
	if b.bookErr != nil {
		return nil, b.bookErr
	}
	b.booked = append(b.booked, req)
	starts, _ := time.Parse("2006-01-02 15:04", req.Date+" "+req.Time)
	return &booking.Appointment{
		ID:          "appt-new",
		ClinicID:    req.ClinicID,
		Recipient:   req.Recipient,
		ServiceID:   req.ServiceID,
		ServiceName: "Botox",
		StartsAt:    starts,
		Status:      booking.StatusConfirmed,
	}, nil
}

func (b *fakeBooking) Cancel(ctx context.Context, clinicID, appointmentID string) error {
	if b.cancelErr != nil {
		return b.cancelErr
	}
	b.cancelled = append(b.cancelled, appointmentID)
	return nil
}

func (b *fakeBooking) Reschedule(ctx context.Context, clinicID, appointmentID, date, timeOfDay string) (*booking.Appointment, error) {
	if b.rescheduleErr != nil {
		return nil, b.rescheduleErr
	}
	b.rescheduled = append(b.rescheduled, appointmentID)
	starts, _ := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
	return &booking.Appointment{
		ID:          appointmentID,
		ClinicID:    clinicID,
		ServiceName: "Botox",
		StartsAt:    starts,
		Status:      booking.StatusConfirmed,
	}, nil
}

func (b *fakeBooking) ListUpcoming(ctx context.Context, clinicID, recipient string) ([]booking.Appointment, error) {
	return b.upcoming, nil
}

func (b *fakeBooking) ConfirmedOn(ctx context.Context, clinicID, date string) ([]booking.Appointment, error) {
	return nil, nil
}

func (b *fakeBooking) Services(ctx context.Context, clinicID string) ([]booking.Service, error) {
	return b.services, nil
}

type fakeReminders struct {
	scheduled []booking.Appointment
	cancelled []string
}

func (r *fakeReminders) Schedule(ctx context.Context, appt booking.Appointment) error {
	r.scheduled = append(r.scheduled, appt)
	return nil
}

func (r *fakeReminders) Cancel(ctx context.Context, clinicID, appointmentID string) (int64, error) {
	r.cancelled = append(r.cancelled, appointmentID)
	return 1, nil
}

type fakeNotifier struct {
	handoffs []string
}

func (n *fakeNotifier) NotifyHandoff(ctx context.Context, clinic *clinics.Clinic, recipient, lastMessage string) error {
	n.handoffs = append(n.handoffs, recipient)
	return nil
}

type engineFixture struct {
	engine   *Engine
	provider *fakeProvider
	booking  *fakeBooking
	remind   *fakeReminders
	notify   *fakeNotifier
	sessions *session.Store
	clinic   *clinics.Clinic
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &engineFixture{
		provider: &fakeProvider{},
		booking: &fakeBooking{
			services: []booking.Service{
				{ID: "svc_botox", Name: "Botox"},
				{ID: "svc_laser", Name: "Depilação a Laser", Areas: []string{"Axilas", "Pernas"}},
			},
			days:  []string{"2026-02-09", "2026-02-10"},
			times: []string{"09:00", "14:30"},
		},
		remind:   &fakeReminders{},
		notify:   &fakeNotifier{},
		sessions: session.NewStore(client, nil),
		clinic: &clinics.Clinic{
			ID:       "clinic-1",
			Name:     "Clínica Bela Pele",
			Timezone: "America/Sao_Paulo",
			Active:   true,
		},
	}
	f.engine = NewEngine(Config{
		Sessions:     f.sessions,
		Availability: f.booking,
		Booking:      f.booking,
		Reminders:    f.remind,
		Templates:    templates.NewResolver(nil, logging.Default()),
		ProviderFor:  func(*clinics.Clinic) delivery.Provider { return f.provider },
		Notifier:     f.notify,
		Logger:       logging.Default(),
	})
	return f
}

func (f *engineFixture) turn(t *testing.T, msg delivery.InboundMessage) {
	t.Helper()
	msg.From = testRecipient
	require.NoError(t, f.engine.HandleTurn(context.Background(), f.clinic, msg))
}

func (f *engineFixture) session(t *testing.T) *session.Session {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), f.clinic.ID, testRecipient)
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess
}

func TestHandleTurn_GreetingShowsMainMenu(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})

	sess := f.session(t)
	assert.Equal(t, session.StateMainMenu, sess.State)
	assert.Len(t, sess.DynamicButtons, 5)

	// Five options exceed the button limit, so the menu goes out as a list.
	msg := f.provider.last(t)
	assert.Equal(t, "list", msg.kind)
	require.Len(t, msg.sections, 1)
	assert.Len(t, msg.sections[0].Buttons, 5)
}

func TestHandleTurn_FullBookingFlow(t *testing.T) {
	f := newFixture(t)

	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "schedule"})
	assert.Equal(t, session.StateSelectServices, f.session(t).State)

	f.turn(t, delivery.InboundMessage{ButtonID: "svc_botox"})
	sess := f.session(t)
	assert.Equal(t, session.StateAvailableDays, sess.State)
	assert.Equal(t, "Botox", sess.Selected.ServiceName)

	f.turn(t, delivery.InboundMessage{ButtonID: "day_2026-02-10"})
	sess = f.session(t)
	assert.Equal(t, session.StateSelectTime, sess.State)
	assert.Equal(t, "2026-02-10", sess.Selected.Date)

	f.turn(t, delivery.InboundMessage{ButtonID: "time_14:30"})
	sess = f.session(t)
	assert.Equal(t, session.StateConfirmBooking, sess.State)
	assert.Equal(t, "14:30", sess.Selected.Time)

	f.turn(t, delivery.InboundMessage{ButtonID: "confirm"})
	sess = f.session(t)
	assert.Equal(t, session.StateBooked, sess.State)
	assert.Empty(t, sess.DynamicButtons)
	assert.Equal(t, session.Selections{}, sess.Selected)

	require.Len(t, f.booking.booked, 1)
	assert.Equal(t, booking.Request{
		ClinicID:  "clinic-1",
		Recipient: testRecipient,
		ServiceID: "svc_botox",
		Date:      "2026-02-10",
		Time:      "14:30",
	}, f.booking.booked[0])
	require.Len(t, f.remind.scheduled, 1)
	assert.Equal(t, "appt-new", f.remind.scheduled[0].ID)
}

func TestHandleTurn_ServiceWithAreas(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "schedule"})
	f.turn(t, delivery.InboundMessage{ButtonID: "svc_laser"})

	sess := f.session(t)
	assert.Equal(t, session.StateSelectAreas, sess.State)

	f.turn(t, delivery.InboundMessage{ButtonID: "Axilas"})
	sess = f.session(t)
	assert.Equal(t, session.StateAvailableDays, sess.State)
	assert.Equal(t, "Axilas", sess.Selected.Area)
}

func TestHandleTurn_SlotTakenReentersDays(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "schedule"})
	f.turn(t, delivery.InboundMessage{ButtonID: "svc_botox"})
	f.turn(t, delivery.InboundMessage{ButtonID: "day_2026-02-10"})
	f.turn(t, delivery.InboundMessage{ButtonID: "time_14:30"})

	f.booking.bookErr = booking.ErrSlotTaken
	f.turn(t, delivery.InboundMessage{ButtonID: "confirm"})

	sess := f.session(t)
	assert.Equal(t, session.StateAvailableDays, sess.State)
	assert.Empty(t, f.remind.scheduled)
}

func TestHandleTurn_HumanHandoffSuppressesFollowingTurns(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "atendente"})

	sess := f.session(t)
	assert.Equal(t, session.StateHumanHandoff, sess.State)
	assert.Equal(t, []string{testRecipient}, f.notify.handoffs)

	// The handoff turn confirms the transfer and then says goodbye.
	require.Len(t, f.provider.sent, 2)
	assert.Contains(t, f.provider.sent[0].body, "atendente")
	assert.Contains(t, f.provider.sent[1].body, "Obrigada pelo contato")

	sentBefore := len(f.provider.sent)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "schedule"})

	assert.Len(t, f.provider.sent, sentBefore)
	assert.Equal(t, session.StateHumanHandoff, f.session(t).State)
}

func TestHandleTurn_CancelFlow(t *testing.T) {
	f := newFixture(t)
	f.booking.upcoming = []booking.Appointment{
		{ID: "appt-7", ServiceName: "Botox", StartsAt: time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC)},
	}

	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "cancel"})
	assert.Equal(t, session.StateCancelSelect, f.session(t).State)

	f.turn(t, delivery.InboundMessage{ButtonID: "appt_appt-7"})
	sess := f.session(t)
	assert.Equal(t, session.StateCancelConfirm, sess.State)
	assert.Equal(t, "appt-7", sess.Selected.AppointmentID)

	f.turn(t, delivery.InboundMessage{ButtonID: "confirm"})
	sess = f.session(t)
	assert.Equal(t, session.StateMainMenu, sess.State)
	assert.Equal(t, []string{"appt-7"}, f.booking.cancelled)
	assert.Equal(t, []string{"appt-7"}, f.remind.cancelled)
}

func TestHandleTurn_RescheduleFlow(t *testing.T) {
	f := newFixture(t)
	f.booking.upcoming = []booking.Appointment{
		{ID: "appt-7", ServiceName: "Botox", StartsAt: time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC)},
	}

	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "reschedule"})
	f.turn(t, delivery.InboundMessage{ButtonID: "appt_appt-7"})
	assert.Equal(t, session.StateRescheduleDays, f.session(t).State)

	f.turn(t, delivery.InboundMessage{ButtonID: "newday_2026-02-09"})
	f.turn(t, delivery.InboundMessage{ButtonID: "newtime_09:00"})
	assert.Equal(t, session.StateRescheduleConfirm, f.session(t).State)

	f.turn(t, delivery.InboundMessage{ButtonID: "confirm"})
	sess := f.session(t)
	assert.Equal(t, session.StateBooked, sess.State)
	assert.Equal(t, []string{"appt-7"}, f.booking.rescheduled)
	// Old reminder goes, the moved appointment gets a fresh one.
	assert.Equal(t, []string{"appt-7"}, f.remind.cancelled)
	require.Len(t, f.remind.scheduled, 1)
}

func TestHandleTurn_NoUpcomingAppointmentsResets(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "cancel"})

	sess := f.session(t)
	assert.Equal(t, session.StateMainMenu, sess.State)
}

func TestHandleTurn_SendFailureDoesNotAbortTurn(t *testing.T) {
	f := newFixture(t)
	f.provider.fail = true

	f.turn(t, delivery.InboundMessage{Content: "oi"})

	// The turn still commits: state saved despite the failed send.
	assert.Equal(t, session.StateMainMenu, f.session(t).State)
}

func TestHandleTurn_BackReturnsToParent(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "schedule"})
	f.turn(t, delivery.InboundMessage{ButtonID: "svc_botox"})
	assert.Equal(t, session.StateAvailableDays, f.session(t).State)

	f.turn(t, delivery.InboundMessage{Content: "voltar"})
	assert.Equal(t, session.StateSelectServices, f.session(t).State)
}

func TestHandleTurn_UnrecognizedReprompts(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	before := len(f.provider.sent)

	f.turn(t, delivery.InboundMessage{Content: "xyzzy"})

	// Fallback text plus the re-sent menu prompt.
	assert.Len(t, f.provider.sent, before+2)
	assert.Equal(t, "text", f.provider.sent[before].kind)
	assert.Equal(t, session.StateMainMenu, f.session(t).State)
}

func TestHandleTurn_FAQ(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "faq"})
	assert.Equal(t, session.StateFAQMenu, f.session(t).State)

	f.turn(t, delivery.InboundMessage{ButtonID: "faq_hours"})
	sess := f.session(t)
	// Answer sent, menu stays live for the next topic.
	assert.Equal(t, session.StateFAQMenu, sess.State)
	assert.Equal(t, "text", f.provider.last(t).kind)
}

func TestHandleTurn_FAQUnknownTopicReprompts(t *testing.T) {
	f := newFixture(t)
	f.turn(t, delivery.InboundMessage{Content: "oi"})
	f.turn(t, delivery.InboundMessage{ButtonID: "faq"})
	before := len(f.provider.sent)

	f.turn(t, delivery.InboundMessage{ButtonID: "faq_parking"})

	assert.Equal(t, session.StateFAQMenu, f.session(t).State)
	// Fallback text plus the re-sent menu prompt, no answer body.
	assert.Len(t, f.provider.sent, before+2)
	assert.Contains(t, f.provider.sent[before].body, "não entendi")
}
