package booking

import (
	"context"
	"errors"
	"time"
)

// ErrSlotTaken indicates the requested slot is no longer available.
var ErrSlotTaken = errors.New("booking: slot taken")

// ErrAppointmentNotFound indicates the appointment id is unknown.
var ErrAppointmentNotFound = errors.New("booking: appointment not found")

// Availability exposes the slot computation owned by the scheduling engine.
type Availability interface {
	// OpenDays lists dates (YYYY-MM-DD, clinic timezone) with at least one
	// free slot, starting at from, scanning up to days ahead.
	OpenDays(ctx context.Context, clinicID string, from time.Time, days int) ([]string, error)
	// OpenTimes lists free start times (HH:MM) on the given date.
	OpenTimes(ctx context.Context, clinicID, date string) ([]string, error)
}

// Scheduler is the appointment write/read collaborator. The dialog engine
// invokes it; appointment persistence belongs to the booking service.
type Scheduler interface {
	Book(ctx context.Context, req Request) (*Appointment, error)
	Cancel(ctx context.Context, clinicID, appointmentID string) error
	Reschedule(ctx context.Context, clinicID, appointmentID, date, timeOfDay string) (*Appointment, error)
	// ListUpcoming returns the recipient's future confirmed appointments.
	ListUpcoming(ctx context.Context, clinicID, recipient string) ([]Appointment, error)
	// ConfirmedOn returns all confirmed appointments for a clinic on a date.
	ConfirmedOn(ctx context.Context, clinicID, date string) ([]Appointment, error)
	Services(ctx context.Context, clinicID string) ([]Service, error)
}
