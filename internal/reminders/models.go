package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of an appointment reminder.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Reminder is one scheduled pre-appointment message. SendAt is the
// appointment start minus the configured lead.
type Reminder struct {
	ID            uuid.UUID  `json:"id"`
	ClinicID      string     `json:"clinic_id"`
	AppointmentID string     `json:"appointment_id"`
	Recipient     string     `json:"recipient"`
	PatientName   string     `json:"patient_name,omitempty"`
	ServiceName   string     `json:"service_name"`
	StartsAt      time.Time  `json:"starts_at"`
	SendAt        time.Time  `json:"send_at"`
	Status        Status     `json:"status"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
