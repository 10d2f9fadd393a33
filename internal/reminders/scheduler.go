package reminders

import (
	"context"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Scheduler creates and cancels reminders as appointments change. It is the
// write-side counterpart of the Sweeper.
type Scheduler struct {
	store  *Store
	lead   time.Duration
	logger *logging.Logger
	now    func() time.Time
}

// NewScheduler creates a reminder scheduler with the given lead time.
func NewScheduler(store *Store, lead time.Duration, logger *logging.Logger) *Scheduler {
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{store: store, lead: lead, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Schedule creates a pending reminder at appointment start minus the lead.
// Appointments starting inside the lead window get no reminder; there is no
// point confirming "tomorrow" for a booking later today.
func (s *Scheduler) Schedule(ctx context.Context, appt booking.Appointment) error {
	sendAt := appt.StartsAt.Add(-s.lead)
	if !sendAt.After(s.now().UTC()) {
		s.logger.Info("reminders: appointment inside lead window, skipping",
			"clinic_id", appt.ClinicID, "appointment_id", appt.ID, "starts_at", appt.StartsAt)
		return nil
	}
	return s.store.Create(ctx, &Reminder{
		ClinicID:      appt.ClinicID,
		AppointmentID: appt.ID,
		Recipient:     appt.Recipient,
		PatientName:   appt.PatientName,
		ServiceName:   appt.ServiceName,
		StartsAt:      appt.StartsAt,
		SendAt:        sendAt,
	})
}

// Cancel voids all pending reminders for an appointment, returning the count.
func (s *Scheduler) Cancel(ctx context.Context, clinicID, appointmentID string) (int64, error) {
	return s.store.CancelForAppointment(ctx, clinicID, appointmentID)
}
