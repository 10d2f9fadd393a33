package clinics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the clinic does not exist.
var ErrNotFound = errors.New("clinics: not found")

// Directory is the read interface consumed by the dialog engine and sweepers.
type Directory interface {
	Get(ctx context.Context, clinicID string) (*Clinic, error)
	LookupByPhoneNumberID(ctx context.Context, phoneNumberID string) (*Clinic, error)
	ListActive(ctx context.Context) ([]Clinic, error)
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store loads clinic profiles from Postgres.
type Store struct {
	db DB
}

var _ Directory = (*Store)(nil)

// NewStore creates a clinic store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const clinicColumns = `id, name, timezone, contact_number, COALESCE(contact_email, ''), whatsapp_phone_number_id,
		whatsapp_token, active, sandbox, allowed_recipients, created_at, updated_at`

// Get returns the clinic with the given id.
func (s *Store) Get(ctx context.Context, clinicID string) (*Clinic, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE id = $1`, clinicID)
	clinic, err := scanClinic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clinics: get %s: %w", clinicID, err)
	}
	return clinic, nil
}

// LookupByPhoneNumberID resolves the clinic owning a WhatsApp business number.
func (s *Store) LookupByPhoneNumberID(ctx context.Context, phoneNumberID string) (*Clinic, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE whatsapp_phone_number_id = $1 AND active
		LIMIT 1`, phoneNumberID)
	clinic, err := scanClinic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clinics: lookup by phone number id: %w", err)
	}
	return clinic, nil
}

// ListActive returns every active clinic, used by the scheduled jobs.
func (s *Store) ListActive(ctx context.Context) ([]Clinic, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE active
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("clinics: list active: %w", err)
	}
	defer rows.Close()

	var result []Clinic
	for rows.Next() {
		clinic, err := scanClinic(rows)
		if err != nil {
			return nil, fmt.Errorf("clinics: scan clinic: %w", err)
		}
		result = append(result, *clinic)
	}
	return result, rows.Err()
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	var allowed []byte
	err := row.Scan(
		&c.ID, &c.Name, &c.Timezone, &c.ContactNumber, &c.ContactEmail, &c.WhatsAppPhoneNumberID,
		&c.WhatsAppToken, &c.Active, &c.Sandbox, &allowed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 {
		if err := json.Unmarshal(allowed, &c.AllowedRecipients); err != nil {
			return nil, fmt.Errorf("decode allowed recipients: %w", err)
		}
	}
	return &c, nil
}
