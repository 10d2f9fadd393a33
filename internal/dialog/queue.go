package dialog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/queue"
)

// turnPayload is the wire form of one queued dialog turn.
type turnPayload struct {
	ID       string                  `json:"id"`
	ClinicID string                  `json:"clinic_id"`
	Message  delivery.InboundMessage `json:"message"`
}

// Publisher enqueues inbound messages for asynchronous turn processing, so
// the webhook can acknowledge the provider inside its delivery deadline.
type Publisher struct {
	queue queue.Client
}

// NewPublisher creates a turn publisher.
func NewPublisher(q queue.Client) *Publisher {
	if q == nil {
		panic("dialog: queue cannot be nil")
	}
	return &Publisher{queue: q}
}

// Enqueue queues one inbound message for the worker.
func (p *Publisher) Enqueue(ctx context.Context, clinicID string, msg delivery.InboundMessage) error {
	body, err := json.Marshal(turnPayload{
		ID:       uuid.NewString(),
		ClinicID: clinicID,
		Message:  msg,
	})
	if err != nil {
		return fmt.Errorf("dialog: encode turn payload: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("dialog: enqueue turn: %w", err)
	}
	return nil
}
