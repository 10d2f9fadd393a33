package ledger

import (
	"context"
	"encoding/json"
	"fmt"

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

// Store is the append-only conversation event store.
type Store struct {
	db DB
}

// NewStore creates a ledger store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Append inserts one event. Prior rows are never updated; the seq column is
// assigned by the database and orders events within a conversation.
func (s *Store) Append(ctx context.Context, evt *Event) error {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.ConversationID == "" {
		evt.ConversationID = ConversationID(evt.ClinicID, evt.Recipient)
	}
	metadata := evt.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("ledger: marshal metadata: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO conversation_events (
			id, clinic_id, recipient, conversation_id, message_id, direction,
			message_type, content, status, provider_message_id, metadata
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING seq, created_at`,
		evt.ID, evt.ClinicID, evt.Recipient, evt.ConversationID, evt.MessageID,
		string(evt.Direction), evt.Type, evt.Content, string(evt.Status),
		evt.ProviderMessageID, metaJSON,
	)
	if err := row.Scan(&evt.Seq, &evt.CreatedAt); err != nil {
		return fmt.Errorf("ledger: append event: %w", err)
	}
	return nil
}

// ListConversation returns the most recent events of a conversation in
// ascending seq order.
func (s *Store) ListConversation(ctx context.Context, clinicID, recipient string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, clinic_id, recipient, conversation_id, message_id, direction,
			message_type, content, status, provider_message_id, metadata, seq, created_at
		FROM (
			SELECT * FROM conversation_events
			WHERE conversation_id = $1
			ORDER BY seq DESC LIMIT $2
		) window
		ORDER BY seq ASC`,
		ConversationID(clinicID, recipient), limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list conversation: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var result []Event
	for rows.Next() {
		var evt Event
		var direction, status string
		var metaJSON []byte
		err := rows.Scan(
			&evt.ID, &evt.ClinicID, &evt.Recipient, &evt.ConversationID,
			&evt.MessageID, &direction, &evt.Type, &evt.Content, &status,
			&evt.ProviderMessageID, &metaJSON, &evt.Seq, &evt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan event: %w", err)
		}
		evt.Direction = Direction(direction)
		evt.Status = EventStatus(status)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &evt.Metadata); err != nil {
				return nil, fmt.Errorf("ledger: decode metadata: %w", err)
			}
		}
		result = append(result, evt)
	}
	return result, rows.Err()
}
