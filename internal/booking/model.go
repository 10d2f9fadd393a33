package booking

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// Service is a bookable procedure offered by a clinic. Areas is empty when
// the procedure has no body-area refinement step.
type Service struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Areas    []string      `json:"areas,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Appointment is a booked slot as the scheduling engine reports it.
type Appointment struct {
	ID          string            `json:"id"`
	ClinicID    string            `json:"clinic_id"`
	Recipient   string            `json:"recipient"`
	PatientName string            `json:"patient_name,omitempty"`
	ServiceID   string            `json:"service_id"`
	ServiceName string            `json:"service_name"`
	Areas       []string          `json:"areas,omitempty"`
	StartsAt    time.Time         `json:"starts_at"`
	Status      AppointmentStatus `json:"status"`
}

// Request carries everything needed to book a slot.
type Request struct {
	ClinicID    string `json:"clinic_id"`
	Recipient   string `json:"recipient"`
	PatientName string `json:"patient_name,omitempty"`
	ServiceID   string `json:"service_id"`
	Area        string `json:"area,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}
