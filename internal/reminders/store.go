package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const reminderColumns = `id, clinic_id, appointment_id, recipient, patient_name, service_name, starts_at, send_at, status, sent_at, COALESCE(last_error, ''), created_at, updated_at`

// Store provides persistence for appointment reminders.
type Store struct {
	db DB
}

// NewStore creates a reminder store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new pending reminder.
func (s *Store) Create(ctx context.Context, r *Reminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = StatusPending
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO reminders (id, clinic_id, appointment_id, recipient, patient_name, service_name, starts_at, send_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.ClinicID, r.AppointmentID, r.Recipient, r.PatientName, r.ServiceName,
		r.StartsAt, r.SendAt, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reminders: create: %w", err)
	}
	return nil
}

// ListDue returns pending reminders whose send_at is on or before asOf,
// oldest first.
func (s *Store) ListDue(ctx context.Context, asOf time.Time, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE status = 'pending' AND send_at <= $1
		ORDER BY send_at ASC
		LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: list due: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ListByClinic returns a clinic's reminders, newest send_at first.
func (s *Store) ListByClinic(ctx context.Context, clinicID string, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE clinic_id = $1
		ORDER BY send_at DESC
		LIMIT $2`, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: list by clinic: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// MarkSent transitions pending → sent. Reminders in any other status are
// left alone; a sweep racing another sweep must not double-fire.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE reminders SET status = 'sent', sent_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'pending'`, now, id)
	if err != nil {
		return false, fmt.Errorf("reminders: mark sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed transitions pending → failed, recording the reason.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE reminders SET status = 'failed', last_error = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'`, reason, now, id)
	if err != nil {
		return false, fmt.Errorf("reminders: mark failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CancelForAppointment cancels every pending reminder attached to an
// appointment and returns how many were cancelled. Sent and failed
// reminders keep their history.
func (s *Store) CancelForAppointment(ctx context.Context, clinicID, appointmentID string) (int64, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE reminders SET status = 'cancelled', updated_at = $1
		WHERE clinic_id = $2 AND appointment_id = $3 AND status = 'pending'`,
		now, clinicID, appointmentID)
	if err != nil {
		return 0, fmt.Errorf("reminders: cancel for appointment: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReminders(rows pgx.Rows) ([]Reminder, error) {
	var out []Reminder
	for rows.Next() {
		var r Reminder
		var status string
		if err := rows.Scan(
			&r.ID, &r.ClinicID, &r.AppointmentID, &r.Recipient, &r.PatientName,
			&r.ServiceName, &r.StartsAt, &r.SendAt, &status, &r.SentAt,
			&r.LastError, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("reminders: scan: %w", err)
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reminders: rows: %w", err)
	}
	return out, nil
}
