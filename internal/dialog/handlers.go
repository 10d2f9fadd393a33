package dialog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
)

// stateHandlers routes a resolved token to the handler for the session's
// current state. The dispatch in Engine.dispatch has already consumed the
// global tokens, so handlers only see state-local input.
var stateHandlers = map[session.State]func(*Engine, *turn) error{
	session.StateMainMenu:          (*Engine).handleMainMenu,
	session.StateSelectServices:    (*Engine).handleSelectServices,
	session.StateSelectAreas:       (*Engine).handleSelectAreas,
	session.StateAvailableDays:     (*Engine).handleAvailableDays,
	session.StateSelectTime:        (*Engine).handleSelectTime,
	session.StateConfirmBooking:    (*Engine).handleConfirmBooking,
	session.StateBooked:            (*Engine).handleBooked,
	session.StateRescheduleSelect:  (*Engine).handleRescheduleSelect,
	session.StateRescheduleDays:    (*Engine).handleRescheduleDays,
	session.StateRescheduleTime:    (*Engine).handleRescheduleTime,
	session.StateRescheduleConfirm: (*Engine).handleRescheduleConfirm,
	session.StateCancelSelect:      (*Engine).handleCancelSelect,
	session.StateCancelConfirm:     (*Engine).handleCancelConfirm,
	session.StateFAQMenu:           (*Engine).handleFAQMenu,
}

func (e *Engine) handleMainMenu(t *turn) error {
	switch t.token {
	case "schedule":
		return e.enter(t, session.StateSelectServices)
	case "reschedule":
		return e.enter(t, session.StateRescheduleSelect)
	case "cancel":
		return e.enter(t, session.StateCancelSelect)
	case "faq":
		return e.enter(t, session.StateFAQMenu)
	default:
		return e.unrecognized(t)
	}
}

func (e *Engine) handleSelectServices(t *turn) error {
	chosen := t.sess.ButtonByID(t.token)
	if chosen == nil {
		return e.unrecognized(t)
	}
	t.sess.Selected.ServiceID = chosen.ID
	t.sess.Selected.ServiceName = chosen.Label

	svc, err := e.serviceByID(t, chosen.ID)
	if err != nil {
		return err
	}
	if svc != nil && len(svc.Areas) > 0 {
		return e.enter(t, session.StateSelectAreas)
	}
	return e.enter(t, session.StateAvailableDays)
}

func (e *Engine) handleSelectAreas(t *turn) error {
	chosen := t.sess.ButtonByID(t.token)
	if chosen == nil {
		return e.unrecognized(t)
	}
	t.sess.Selected.Area = chosen.ID
	return e.enter(t, session.StateAvailableDays)
}

func (e *Engine) handleAvailableDays(t *turn) error {
	if strings.HasPrefix(t.token, "day_") && t.sess.Selected.Date != "" {
		return e.enter(t, session.StateSelectTime)
	}
	return e.unrecognized(t)
}

func (e *Engine) handleSelectTime(t *turn) error {
	if strings.HasPrefix(t.token, "time_") && t.sess.Selected.Time != "" {
		return e.enter(t, session.StateConfirmBooking)
	}
	return e.unrecognized(t)
}

func (e *Engine) handleConfirmBooking(t *turn) error {
	if t.token != "confirm" {
		return e.unrecognized(t)
	}

	sel := t.sess.Selected
	appt, err := e.booking.Book(t.ctx, booking.Request{
		ClinicID:  t.clinic.ID,
		Recipient: t.sess.Recipient,
		ServiceID: sel.ServiceID,
		Area:      sel.Area,
		Date:      sel.Date,
		Time:      sel.Time,
	})
	if errors.Is(err, booking.ErrSlotTaken) {
		e.noAvailability(t)
		return e.enter(t, session.StateAvailableDays)
	}
	if err != nil {
		return fmt.Errorf("dialog: book appointment: %w", err)
	}

	if e.reminders != nil {
		if err := e.reminders.Schedule(t.ctx, *appt); err != nil {
			return fmt.Errorf("dialog: schedule reminder: %w", err)
		}
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyBookingConfirmed, map[string]string{
		"service": appt.ServiceName,
		"date":    formatDateBR(sel.Date),
		"time":    sel.Time,
	})
	tmpl.Buttons = nil
	e.send(t, tmpl)

	t.sess.Selected = session.Selections{}
	t.sess.SetState(session.StateBooked)
	t.sess.SetButtons(nil)
	return nil
}

// A booked session treats the next message as a fresh conversation.
func (e *Engine) handleBooked(t *turn) error {
	t.sess.Reset()
	return e.enter(t, session.StateMainMenu)
}

func (e *Engine) handleRescheduleSelect(t *turn) error {
	appt, err := e.chosenAppointment(t)
	if err != nil {
		return err
	}
	if appt == nil {
		return e.unrecognized(t)
	}
	t.sess.Selected.AppointmentID = appt.ID
	t.sess.Selected.ServiceName = appt.ServiceName
	return e.enter(t, session.StateRescheduleDays)
}

func (e *Engine) handleRescheduleDays(t *turn) error {
	if strings.HasPrefix(t.token, "newday_") && t.sess.Selected.NewDate != "" {
		return e.enter(t, session.StateRescheduleTime)
	}
	return e.unrecognized(t)
}

func (e *Engine) handleRescheduleTime(t *turn) error {
	if strings.HasPrefix(t.token, "newtime_") && t.sess.Selected.NewTime != "" {
		return e.enter(t, session.StateRescheduleConfirm)
	}
	return e.unrecognized(t)
}

func (e *Engine) handleRescheduleConfirm(t *turn) error {
	if t.token != "confirm" {
		return e.unrecognized(t)
	}

	sel := t.sess.Selected
	moved, err := e.booking.Reschedule(t.ctx, t.clinic.ID, sel.AppointmentID, sel.NewDate, sel.NewTime)
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		e.noAvailability(t)
		return e.enter(t, session.StateRescheduleDays)
	case errors.Is(err, booking.ErrAppointmentNotFound):
		e.noAppointments(t)
		t.sess.Reset()
		return nil
	case err != nil:
		return fmt.Errorf("dialog: reschedule appointment: %w", err)
	}

	if e.reminders != nil {
		if _, err := e.reminders.Cancel(t.ctx, t.clinic.ID, sel.AppointmentID); err != nil {
			return fmt.Errorf("dialog: cancel reminders: %w", err)
		}
		if err := e.reminders.Schedule(t.ctx, *moved); err != nil {
			return fmt.Errorf("dialog: schedule reminder: %w", err)
		}
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyRescheduleConfirmed, map[string]string{
		"service": moved.ServiceName,
		"date":    formatDateBR(sel.NewDate),
		"time":    sel.NewTime,
	})
	tmpl.Buttons = nil
	e.send(t, tmpl)

	t.sess.Selected = session.Selections{}
	t.sess.SetState(session.StateBooked)
	t.sess.SetButtons(nil)
	return nil
}

func (e *Engine) handleCancelSelect(t *turn) error {
	appt, err := e.chosenAppointment(t)
	if err != nil {
		return err
	}
	if appt == nil {
		return e.unrecognized(t)
	}
	starts := appt.StartsAt.In(e.location(t.clinic))
	t.sess.Selected.AppointmentID = appt.ID
	t.sess.Selected.ServiceName = appt.ServiceName
	t.sess.Selected.Date = starts.Format(time.DateOnly)
	t.sess.Selected.Time = starts.Format("15:04")
	return e.enter(t, session.StateCancelConfirm)
}

func (e *Engine) handleCancelConfirm(t *turn) error {
	if t.token != "confirm" {
		return e.unrecognized(t)
	}

	sel := t.sess.Selected
	err := e.booking.Cancel(t.ctx, t.clinic.ID, sel.AppointmentID)
	if errors.Is(err, booking.ErrAppointmentNotFound) {
		e.noAppointments(t)
		t.sess.Reset()
		return nil
	}
	if err != nil {
		return fmt.Errorf("dialog: cancel appointment: %w", err)
	}

	if e.reminders != nil {
		if _, err := e.reminders.Cancel(t.ctx, t.clinic.ID, sel.AppointmentID); err != nil {
			return fmt.Errorf("dialog: cancel reminders: %w", err)
		}
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyCancelConfirmed, nil)
	tmpl.Buttons = nil
	e.send(t, tmpl)

	t.sess.Reset()
	return nil
}

func (e *Engine) handleFAQMenu(t *turn) error {
	if !strings.HasPrefix(t.token, "faq_") || t.sess.Selected.FAQKey == "" {
		return e.unrecognized(t)
	}
	key := "faq_" + t.sess.Selected.FAQKey
	if !slices.Contains(templates.FAQKeys(), key) {
		return e.unrecognized(t)
	}
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, key, map[string]string{
		"clinic": t.clinic.Name,
	})
	if tmpl.Body == "" {
		return e.unrecognized(t)
	}
	tmpl.Buttons = nil
	e.send(t, tmpl)
	// Menu buttons stay live so the user can pick another topic.
	return nil
}

// enter transitions the session into a state and sends its prompt.
func (e *Engine) enter(t *turn, state session.State) error {
	switch state {
	case session.StateSelectServices:
		return e.enterSelectServices(t)
	case session.StateSelectAreas:
		return e.enterSelectAreas(t)
	case session.StateAvailableDays:
		return e.enterAvailableDays(t)
	case session.StateSelectTime:
		return e.enterSelectTime(t)
	case session.StateConfirmBooking:
		return e.enterConfirmBooking(t)
	case session.StateRescheduleSelect:
		return e.enterRescheduleSelect(t)
	case session.StateRescheduleDays:
		return e.enterRescheduleDays(t)
	case session.StateRescheduleTime:
		return e.enterRescheduleTime(t)
	case session.StateRescheduleConfirm:
		return e.enterRescheduleConfirm(t)
	case session.StateCancelSelect:
		return e.enterCancelSelect(t)
	case session.StateCancelConfirm:
		return e.enterCancelConfirm(t)
	case session.StateFAQMenu:
		return e.enterFAQMenu(t)
	default:
		return e.enterMainMenu(t)
	}
}

func (e *Engine) enterMainMenu(t *turn) error {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyMainMenu, map[string]string{
		"clinic": t.clinic.Name,
	})
	tmpl = withDefaultButtons(tmpl, session.StateMainMenu)
	return e.prompt(t, session.StateMainMenu, tmpl)
}

func (e *Engine) enterSelectServices(t *turn) error {
	services, err := e.booking.Services(t.ctx, t.clinic.ID)
	if err != nil {
		return fmt.Errorf("dialog: list services: %w", err)
	}
	if len(services) == 0 {
		e.noAvailability(t)
		t.sess.Reset()
		return nil
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyScheduleServices, nil)
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, svc := range services {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton(svc.ID, svc.Name))
	}
	return e.prompt(t, session.StateSelectServices, tmpl)
}

func (e *Engine) enterSelectAreas(t *turn) error {
	svc, err := e.serviceByID(t, t.sess.Selected.ServiceID)
	if err != nil {
		return err
	}
	if svc == nil || len(svc.Areas) == 0 {
		return e.enterAvailableDays(t)
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeySelectAreas, map[string]string{
		"service": t.sess.Selected.ServiceName,
	})
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, area := range svc.Areas {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton(area, area))
	}
	return e.prompt(t, session.StateSelectAreas, tmpl)
}

func (e *Engine) enterAvailableDays(t *turn) error {
	days, err := e.availability.OpenDays(t.ctx, t.clinic.ID, time.Now().In(e.location(t.clinic)), e.daysWindow)
	if err != nil {
		return fmt.Errorf("dialog: list open days: %w", err)
	}
	if len(days) == 0 {
		e.noAvailability(t)
		t.sess.Reset()
		return nil
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyAvailableDays, nil)
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, day := range days {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton("day_"+day, dayLabel(day)))
	}
	return e.prompt(t, session.StateAvailableDays, tmpl)
}

func (e *Engine) enterSelectTime(t *turn) error {
	times, err := e.availability.OpenTimes(t.ctx, t.clinic.ID, t.sess.Selected.Date)
	if err != nil {
		return fmt.Errorf("dialog: list open times: %w", err)
	}
	if len(times) == 0 {
		e.noAvailability(t)
		return e.enterAvailableDays(t)
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeySelectTime, map[string]string{
		"date": formatDateBR(t.sess.Selected.Date),
	})
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, slot := range times {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton("time_"+slot, slot))
	}
	return e.prompt(t, session.StateSelectTime, tmpl)
}

func (e *Engine) enterConfirmBooking(t *turn) error {
	sel := t.sess.Selected
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyConfirmBooking, map[string]string{
		"service": sel.ServiceName,
		"date":    formatDateBR(sel.Date),
		"time":    sel.Time,
	})
	tmpl = withDefaultButtons(tmpl, session.StateConfirmBooking)
	return e.prompt(t, session.StateConfirmBooking, tmpl)
}

func (e *Engine) enterRescheduleSelect(t *turn) error {
	return e.enterAppointmentPick(t, session.StateRescheduleSelect, templates.KeyRescheduleSelect)
}

func (e *Engine) enterRescheduleDays(t *turn) error {
	days, err := e.availability.OpenDays(t.ctx, t.clinic.ID, time.Now().In(e.location(t.clinic)), e.daysWindow)
	if err != nil {
		return fmt.Errorf("dialog: list open days: %w", err)
	}
	if len(days) == 0 {
		e.noAvailability(t)
		t.sess.Reset()
		return nil
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyRescheduleDays, nil)
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, day := range days {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton("newday_"+day, dayLabel(day)))
	}
	return e.prompt(t, session.StateRescheduleDays, tmpl)
}

func (e *Engine) enterRescheduleTime(t *turn) error {
	times, err := e.availability.OpenTimes(t.ctx, t.clinic.ID, t.sess.Selected.NewDate)
	if err != nil {
		return fmt.Errorf("dialog: list open times: %w", err)
	}
	if len(times) == 0 {
		e.noAvailability(t)
		return e.enterRescheduleDays(t)
	}

	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyRescheduleTime, map[string]string{
		"date": formatDateBR(t.sess.Selected.NewDate),
	})
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, slot := range times {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton("newtime_"+slot, slot))
	}
	return e.prompt(t, session.StateRescheduleTime, tmpl)
}

func (e *Engine) enterRescheduleConfirm(t *turn) error {
	sel := t.sess.Selected
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyRescheduleConfirm, map[string]string{
		"service": sel.ServiceName,
		"date":    formatDateBR(sel.NewDate),
		"time":    sel.NewTime,
	})
	tmpl = withDefaultButtons(tmpl, session.StateRescheduleConfirm)
	return e.prompt(t, session.StateRescheduleConfirm, tmpl)
}

func (e *Engine) enterCancelSelect(t *turn) error {
	return e.enterAppointmentPick(t, session.StateCancelSelect, templates.KeyCancelSelect)
}

func (e *Engine) enterCancelConfirm(t *turn) error {
	sel := t.sess.Selected
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyCancelConfirm, map[string]string{
		"service": sel.ServiceName,
		"date":    formatDateBR(sel.Date),
		"time":    sel.Time,
	})
	tmpl = withDefaultButtons(tmpl, session.StateCancelConfirm)
	return e.prompt(t, session.StateCancelConfirm, tmpl)
}

func (e *Engine) enterFAQMenu(t *turn) error {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyFAQMenu, nil)
	tmpl = withDefaultButtons(tmpl, session.StateFAQMenu)
	return e.prompt(t, session.StateFAQMenu, tmpl)
}

// enterAppointmentPick is the shared prompt for the reschedule and cancel
// pick-an-appointment steps.
func (e *Engine) enterAppointmentPick(t *turn, state session.State, key string) error {
	appts, err := e.booking.ListUpcoming(t.ctx, t.clinic.ID, t.sess.Recipient)
	if err != nil {
		return fmt.Errorf("dialog: list appointments: %w", err)
	}
	if len(appts) == 0 {
		e.noAppointments(t)
		t.sess.Reset()
		return nil
	}

	loc := e.location(t.clinic)
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, key, nil)
	tmpl.Buttons = tmpl.Buttons[:0]
	for _, appt := range appts {
		tmpl.Buttons = append(tmpl.Buttons, deliveryButton("appt_"+appt.ID, apptLabel(appt, loc)))
	}
	return e.prompt(t, state, tmpl)
}

// prompt commits the transition: state, the live option set, and the
// outbound message all change together.
func (e *Engine) prompt(t *turn, state session.State, tmpl templates.Template) error {
	t.sess.SetState(state)
	t.sess.SetButtons(toSessionButtons(tmpl.Buttons))
	e.send(t, tmpl)
	return nil
}

func (e *Engine) noAvailability(t *turn) {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyNoAvailability, nil)
	tmpl.Buttons = nil
	e.send(t, tmpl)
}

func (e *Engine) noAppointments(t *turn) {
	tmpl := e.templates.Render(t.ctx, t.clinic.ID, templates.KeyNoAppointments, nil)
	tmpl.Buttons = nil
	e.send(t, tmpl)
}

func (e *Engine) serviceByID(t *turn, serviceID string) (*booking.Service, error) {
	services, err := e.booking.Services(t.ctx, t.clinic.ID)
	if err != nil {
		return nil, fmt.Errorf("dialog: list services: %w", err)
	}
	for i := range services {
		if services[i].ID == serviceID {
			return &services[i], nil
		}
	}
	return nil, nil
}

// chosenAppointment resolves an appt_<id> token back to the recipient's
// upcoming appointment. A nil return with nil error means the token did not
// name one of their appointments.
func (e *Engine) chosenAppointment(t *turn) (*booking.Appointment, error) {
	if !strings.HasPrefix(t.token, "appt_") {
		return nil, nil
	}
	id := strings.TrimPrefix(t.token, "appt_")
	appts, err := e.booking.ListUpcoming(t.ctx, t.clinic.ID, t.sess.Recipient)
	if err != nil {
		return nil, fmt.Errorf("dialog: list appointments: %w", err)
	}
	for i := range appts {
		if appts[i].ID == id {
			return &appts[i], nil
		}
	}
	return nil, nil
}
