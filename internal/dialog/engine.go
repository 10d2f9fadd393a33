package dialog

import (
	"context"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// ProviderFactory hands out the tenant-scoped delivery provider.
type ProviderFactory func(clinic *clinics.Clinic) delivery.Provider

// ReminderScheduler is the slice of the reminder component the engine needs.
type ReminderScheduler interface {
	Schedule(ctx context.Context, appt booking.Appointment) error
	Cancel(ctx context.Context, clinicID, appointmentID string) (int64, error)
}

// HandoffNotifier alerts clinic staff when a user asks for a human.
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, clinic *clinics.Clinic, recipient, lastMessage string) error
}

// Config wires the engine's collaborators.
type Config struct {
	Sessions        *session.Store
	Availability    booking.Availability
	Booking         booking.Scheduler
	Reminders       ReminderScheduler
	Templates       *templates.Resolver
	ProviderFor     ProviderFactory
	Recorder        *ledger.Recorder
	Notifier        HandoffNotifier
	Logger          *logging.Logger
	DefaultTimezone string
	DaysWindow      int
}

// Engine is the dialog state machine. One turn = one inbound message:
// resolve the action token, mutate the session, prompt the next step.
type Engine struct {
	sessions     *session.Store
	availability booking.Availability
	booking      booking.Scheduler
	reminders    ReminderScheduler
	templates    *templates.Resolver
	providerFor  ProviderFactory
	recorder     *ledger.Recorder
	notifier     HandoffNotifier
	logger       *logging.Logger
	defaultTZ    string
	daysWindow   int
}

// NewEngine creates the dialog engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Sessions == nil {
		panic("dialog: session store cannot be nil")
	}
	if cfg.ProviderFor == nil {
		panic("dialog: provider factory cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.DaysWindow <= 0 {
		cfg.DaysWindow = 7
	}
	return &Engine{
		sessions:     cfg.Sessions,
		availability: cfg.Availability,
		booking:      cfg.Booking,
		reminders:    cfg.Reminders,
		templates:    cfg.Templates,
		providerFor:  cfg.ProviderFor,
		recorder:     cfg.Recorder,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		defaultTZ:    cfg.DefaultTimezone,
		daysWindow:   cfg.DaysWindow,
	}
}

// turn bundles everything one dialog turn operates on.
type turn struct {
	ctx      context.Context
	clinic   *clinics.Clinic
	sess     *session.Session
	provider delivery.Provider
	msg      delivery.InboundMessage
	token    string
}

// HandleTurn processes one inbound message end to end. Session persistence
// errors propagate; send failures and ledger errors do not.
func (e *Engine) HandleTurn(ctx context.Context, clinic *clinics.Clinic, msg delivery.InboundMessage) error {
	sess, err := e.sessions.Load(ctx, clinic.ID, msg.From)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = session.New(clinic.ID, msg.From)
	}

	e.recorder.RecordInbound(ctx, clinic.ID, msg)

	// A handed-off conversation stays silent until an admin resets it.
	if sess.State == session.StateHumanHandoff {
		e.logger.Info("dialog: turn suppressed, session handed off",
			"clinic_id", clinic.ID, "recipient", msg.From)
		return nil
	}

	t := &turn{
		ctx:      ctx,
		clinic:   clinic,
		sess:     sess,
		provider: e.providerFor(clinic),
		msg:      msg,
	}
	t.token = Resolve(msg, sess)
	ExtractDynamicSelection(t.token, sess)

	e.logger.Info("dialog: turn resolved",
		"clinic_id", clinic.ID,
		"recipient", msg.From,
		"state", sess.State,
		"token", t.token,
	)

	if err := e.dispatch(t); err != nil {
		return err
	}
	return e.sessions.Save(ctx, sess)
}

func (e *Engine) dispatch(t *turn) error {
	switch t.token {
	case TokenBack:
		return e.enter(t, ParentState(t.sess.State))
	case TokenMainMenu:
		t.sess.Reset()
		return e.enter(t, session.StateMainMenu)
	case TokenHuman:
		return e.handoff(t)
	case "":
		return e.enter(t, t.sess.State)
	}

	handler, ok := stateHandlers[t.sess.State]
	if !ok {
		t.sess.Reset()
		return e.enter(t, session.StateMainMenu)
	}
	return handler(e, t)
}

// handoff moves the conversation to a human: farewell prompt, staff alert,
// and a state that suppresses all further automation.
func (e *Engine) handoff(t *turn) error {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyHandoff, map[string]string{
		"clinic": t.clinic.Name,
	})
	tmpl.Buttons = nil
	e.send(t, tmpl)

	farewell := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyFarewell, nil)
	farewell.Buttons = nil
	e.send(t, farewell)

	if e.notifier != nil {
		if err := e.notifier.NotifyHandoff(t.ctx, t.clinic, t.sess.Recipient, t.msg.Content); err != nil {
			e.logger.Error("dialog: handoff notification failed",
				"error", err, "clinic_id", t.clinic.ID, "recipient", t.sess.Recipient)
		}
	}

	t.sess.SetState(session.StateHumanHandoff)
	t.sess.SetButtons(nil)
	return nil
}

// send dispatches a rendered template, picking buttons, list, or plain text
// by option count, and records the outbound events. Transport failures are
// already folded into the result and never abort the turn.
func (e *Engine) send(t *turn, tmpl templates.Template) {
	var result delivery.SendResult
	msgType := "text"
	switch {
	case len(tmpl.Buttons) == 0:
		result = t.provider.SendText(t.ctx, t.sess.Recipient, tmpl.Body)
	case len(tmpl.Buttons) <= delivery.MaxButtons:
		msgType = "buttons"
		result = t.provider.SendButtons(t.ctx, t.sess.Recipient, tmpl.Body, tmpl.Buttons)
	default:
		msgType = "list"
		result = t.provider.SendList(t.ctx, t.sess.Recipient, tmpl.Body, "Opções", []delivery.Section{
			{Title: "Opções", Buttons: tmpl.Buttons},
		})
	}
	e.recorder.RecordOutbound(t.ctx, t.clinic.ID, t.sess.Recipient, msgType, tmpl.Body, result)
	if result.Failed() {
		e.logger.Error("dialog: outbound send failed",
			"clinic_id", t.clinic.ID, "recipient", t.sess.Recipient, "error", result.Error)
	}
}

// unrecognized re-prompts the current state after the fallback message.
func (e *Engine) unrecognized(t *turn) error {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyUnrecognized, nil)
	tmpl.Buttons = nil
	e.send(t, tmpl)
	return e.enter(t, t.sess.State)
}

// location resolves the clinic timezone, falling back to the configured
// default and finally UTC.
func (e *Engine) location(clinic *clinics.Clinic) *time.Location {
	if clinic.Timezone != "" {
		if loc, err := time.LoadLocation(clinic.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(e.defaultTZ); err == nil {
		return loc
	}
	return time.UTC
}

// withDefaultButtons backfills a template that carries no buttons of its
// own with the state's fixed option set.
func withDefaultButtons(tmpl templates.Template, state session.State) templates.Template {
	if len(tmpl.Buttons) == 0 {
		tmpl.Buttons = toDeliveryButtons(DefaultButtons(state))
	}
	return tmpl
}

func deliveryButton(id, label string) delivery.Button {
	return delivery.Button{ID: id, Label: label}
}

func toDeliveryButtons(buttons []session.Button) []delivery.Button {
	out := make([]delivery.Button, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, delivery.Button{ID: b.ID, Label: b.Label})
	}
	return out
}

func toSessionButtons(buttons []delivery.Button) []session.Button {
	out := make([]session.Button, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, session.Button{ID: b.ID, Label: b.Label})
	}
	return out
}
