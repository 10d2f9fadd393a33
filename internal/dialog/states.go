package dialog

import "github.com/zapagenda/zapagenda-backend/internal/session"

// defaultButtons is the fixed option set per state, used when no dynamic
// buttons are loaded. States absent here have no fixed options and numeric
// input falls through as raw text.
var defaultButtons = map[session.State][]session.Button{
	session.StateMainMenu: {
		{ID: "schedule", Label: "Agendar"},
		{ID: "reschedule", Label: "Reagendar"},
		{ID: "cancel", Label: "Cancelar"},
		{ID: "faq", Label: "Dúvidas"},
		{ID: "human", Label: "Atendente"},
	},
	session.StateConfirmBooking: {
		{ID: "confirm", Label: "Confirmar"},
		{ID: "back", Label: "Voltar"},
	},
	session.StateRescheduleConfirm: {
		{ID: "confirm", Label: "Confirmar"},
		{ID: "back", Label: "Voltar"},
	},
	session.StateCancelConfirm: {
		{ID: "confirm", Label: "Confirmar"},
		{ID: "back", Label: "Voltar"},
	},
	session.StateFAQMenu: {
		{ID: "faq_hours", Label: "Horários"},
		{ID: "faq_address", Label: "Endereço"},
		{ID: "faq_prices", Label: "Valores"},
	},
}

// DefaultButtons returns the fixed options for a state, or nil.
func DefaultButtons(state session.State) []session.Button {
	return defaultButtons[state]
}

// parentState maps each state to the logical menu "back" returns to.
// States not listed fall back to the main menu.
var parentState = map[session.State]session.State{
	session.StateSelectServices:    session.StateMainMenu,
	session.StateSelectAreas:       session.StateSelectServices,
	session.StateAvailableDays:     session.StateSelectServices,
	session.StateSelectTime:        session.StateAvailableDays,
	session.StateConfirmBooking:    session.StateSelectTime,
	session.StateRescheduleSelect:  session.StateMainMenu,
	session.StateRescheduleDays:    session.StateRescheduleSelect,
	session.StateRescheduleTime:    session.StateRescheduleDays,
	session.StateRescheduleConfirm: session.StateRescheduleTime,
	session.StateCancelSelect:      session.StateMainMenu,
	session.StateCancelConfirm:     session.StateCancelSelect,
	session.StateFAQMenu:           session.StateMainMenu,
}

// ParentState returns the menu "back" leads to from the given state.
func ParentState(state session.State) session.State {
	if parent, ok := parentState[state]; ok {
		return parent
	}
	return session.StateMainMenu
}
