package session

import "time"

// State identifies the current step of the dialog state machine.
type State string

const (
	StateMainMenu          State = "main_menu"
	StateSelectServices    State = "select_services"
	StateSelectAreas       State = "select_areas"
	StateAvailableDays     State = "available_days"
	StateSelectTime        State = "select_time"
	StateConfirmBooking    State = "confirm_booking"
	StateBooked            State = "booked"
	StateRescheduleSelect  State = "reschedule_select"
	StateRescheduleDays    State = "reschedule_days"
	StateRescheduleTime    State = "reschedule_time"
	StateRescheduleConfirm State = "reschedule_confirm"
	StateCancelSelect      State = "cancel_select"
	StateCancelConfirm     State = "cancel_confirm"
	StateFAQMenu           State = "faq_menu"
	StateHumanHandoff      State = "human_handoff"
)

// Button is an option currently on offer to the user.
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Selections holds the ephemeral choices made through the dialog. Empty
// string means unset; fields are validated by the state handlers that
// consume them, not on write.
type Selections struct {
	Date          string `json:"date,omitempty"`
	Time          string `json:"time,omitempty"`
	NewDate       string `json:"new_date,omitempty"`
	NewTime       string `json:"new_time,omitempty"`
	ServiceID     string `json:"service_id,omitempty"`
	ServiceName   string `json:"service_name,omitempty"`
	Area          string `json:"area,omitempty"`
	FAQKey        string `json:"faq_key,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

// Session is the per-(clinic, recipient) dialog record. It is created on the
// first inbound message, mutated every turn, and reset rather than deleted.
type Session struct {
	ClinicID  string     `json:"clinic_id"`
	Recipient string     `json:"recipient"`
	State     State      `json:"state"`
	PrevState State      `json:"prev_state,omitempty"`
	Selected  Selections `json:"selected"`
	// DynamicButtons are the offer-specific options for the current state.
	// They are replaced wholesale on every transition, never appended.
	DynamicButtons []Button  `json:"dynamic_buttons,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New returns a fresh session in the main menu.
func New(clinicID, recipient string) *Session {
	now := time.Now().UTC()
	return &Session{
		ClinicID:  clinicID,
		Recipient: recipient,
		State:     StateMainMenu,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset clears selections and buttons and returns the session to the main menu.
func (s *Session) Reset() {
	s.State = StateMainMenu
	s.PrevState = ""
	s.Selected = Selections{}
	s.DynamicButtons = nil
	s.UpdatedAt = time.Now().UTC()
}

// SetState moves to the given state, remembering where it came from.
func (s *Session) SetState(next State) {
	if next != s.State {
		s.PrevState = s.State
	}
	s.State = next
	s.UpdatedAt = time.Now().UTC()
}

// SetButtons replaces the dynamic option set for the current state.
func (s *Session) SetButtons(buttons []Button) {
	s.DynamicButtons = buttons
}

// ButtonByID finds an option in the current dynamic set, or nil.
func (s *Session) ButtonByID(id string) *Button {
	for i := range s.DynamicButtons {
		if s.DynamicButtons[i].ID == id {
			return &s.DynamicButtons[i]
		}
	}
	return nil
}
