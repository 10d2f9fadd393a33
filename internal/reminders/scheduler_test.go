package reminders

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

func TestScheduler_SendAtIsStartMinusLead(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	scheduler := NewScheduler(store, 24*time.Hour, logging.Default()).
		WithClock(func() time.Time { return now })

	startsAt := time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO reminders").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "appt-7", "5511999990000", "Maria", "Botox",
			startsAt, startsAt.Add(-24*time.Hour), "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := scheduler.Schedule(context.Background(), booking.Appointment{
		ID:          "appt-7",
		ClinicID:    "clinic-1",
		Recipient:   "5511999990000",
		PatientName: "Maria",
		ServiceName: "Botox",
		StartsAt:    startsAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_SkipsAppointmentInsideLeadWindow(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	scheduler := NewScheduler(store, 24*time.Hour, logging.Default()).
		WithClock(func() time.Time { return now })

	// Starts in five and a half hours: the reminder moment already passed,
	// nothing is written.
	err := scheduler.Schedule(context.Background(), booking.Appointment{
		ID:       "appt-7",
		ClinicID: "clinic-1",
		StartsAt: time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_CancelDelegatesToStore(t *testing.T) {
	mock, store := newMockStore(t)
	scheduler := NewScheduler(store, 24*time.Hour, logging.Default())

	mock.ExpectExec("UPDATE reminders SET status = 'cancelled'").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "appt-7").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	count, err := scheduler.Cancel(context.Background(), "clinic-1", "appt-7")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
