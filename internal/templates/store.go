package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads clinic template overrides from Postgres.
type Store struct {
	db DB
}

var _ OverrideStore = (*Store)(nil)

// NewStore creates a template override store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Lookup returns the clinic's override for key, or (nil, nil) when none is
// configured.
func (s *Store) Lookup(ctx context.Context, clinicID, key string) (*Template, error) {
	var body string
	var buttonsJSON []byte
	err := s.db.QueryRow(ctx, `
		SELECT body, buttons
		FROM message_templates
		WHERE clinic_id = $1 AND template_key = $2`,
		clinicID, key).Scan(&body, &buttonsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("templates: lookup override: %w", err)
	}

	tmpl := &Template{Key: key, Body: body}
	if len(buttonsJSON) > 0 {
		if err := json.Unmarshal(buttonsJSON, &tmpl.Buttons); err != nil {
			return nil, fmt.Errorf("templates: decode buttons: %w", err)
		}
	}
	return tmpl, nil
}

// Upsert writes a clinic override. Used by admin tooling.
func (s *Store) Upsert(ctx context.Context, clinicID string, tmpl Template) error {
	buttons, err := json.Marshal(tmpl.Buttons)
	if err != nil {
		return fmt.Errorf("templates: marshal buttons: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO message_templates (clinic_id, template_key, body, buttons)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clinic_id, template_key) DO UPDATE
		SET body = EXCLUDED.body,
			buttons = EXCLUDED.buttons,
			updated_at = now()`,
		clinicID, tmpl.Key, tmpl.Body, buttons)
	if err != nil {
		return fmt.Errorf("templates: upsert override: %w", err)
	}
	return nil
}
