package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store persists dialog sessions in Redis. Sessions carry no TTL: the dialog
// resets them to the main menu instead of expiring them.
type Store struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewStore creates a session store backed by the provided Redis client.
func NewStore(client *redis.Client, tracer trace.Tracer) *Store {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("zapagenda.internal.session")
	}
	return &Store{
		redis:  client,
		tracer: tracer,
	}
}

// Load returns the session for (clinic, recipient), or nil when none exists.
func (s *Store) Load(ctx context.Context, clinicID, recipient string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(clinicID, recipient)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save persists the session.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	if sess == nil {
		return errors.New("session: session cannot be nil")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ClinicID, sess.Recipient), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist session: %w", err)
	}
	return nil
}

// Delete removes the session entirely. Used by admin tooling only.
func (s *Store) Delete(ctx context.Context, clinicID, recipient string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(clinicID, recipient)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(clinicID, recipient string) string {
	return fmt.Sprintf("session:%s:%s", clinicID, recipient)
}
