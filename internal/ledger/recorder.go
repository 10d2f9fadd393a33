package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	observemetrics "github.com/zapagenda/zapagenda-backend/internal/observability/metrics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Recorder is the best-effort facade over the ledger store. Writes here are
// telemetry: every failure is logged and swallowed so the primary send and
// booking flow is never aborted by ledger problems.
type Recorder struct {
	store   *Store
	logger  *logging.Logger
	metrics *observemetrics.MessagingMetrics
}

// NewRecorder creates a ledger recorder.
func NewRecorder(store *Store, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// WithMetrics attaches the outbound send counters.
func (r *Recorder) WithMetrics(m *observemetrics.MessagingMetrics) *Recorder {
	r.metrics = m
	return r
}

// RecordInbound appends the received user message.
func (r *Recorder) RecordInbound(ctx context.Context, clinicID string, msg delivery.InboundMessage) {
	if r == nil || r.store == nil {
		return
	}
	evt := &Event{
		ClinicID:          clinicID,
		Recipient:         msg.From,
		MessageID:         uuid.NewString(),
		Direction:         DirectionInbound,
		Type:              string(msg.Type),
		Content:           msg.Content,
		Status:            StatusReceived,
		ProviderMessageID: msg.ProviderMessageID,
	}
	if msg.ButtonID != "" {
		evt.Metadata = map[string]string{"button_id": msg.ButtonID}
	}
	r.append(ctx, evt)
}

// RecordOutbound appends the QUEUED event for a send followed by exactly one
// terminal event reflecting the result. A blocked send gets its own terminal
// status; it is a synthetic success, not a failure.
func (r *Recorder) RecordOutbound(ctx context.Context, clinicID, recipient, messageType, content string, result delivery.SendResult) {
	if r == nil || r.store == nil {
		return
	}
	messageID := result.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}
	r.append(ctx, &Event{
		ClinicID:  clinicID,
		Recipient: recipient,
		MessageID: messageID,
		Direction: DirectionOutbound,
		Type:      messageType,
		Content:   content,
		Status:    StatusQueued,
	})

	terminal := &Event{
		ClinicID:          clinicID,
		Recipient:         recipient,
		MessageID:         messageID,
		Direction:         DirectionOutbound,
		Type:              messageType,
		Content:           content,
		Status:            StatusSent,
		ProviderMessageID: result.ProviderMessageID,
	}
	switch {
	case result.Blocked:
		terminal.Status = StatusBlocked
		terminal.Metadata = map[string]string{"blocked": "true"}
	case result.Failed():
		terminal.Status = StatusFailed
		terminal.Metadata = map[string]string{"error": result.Error}
	}
	r.append(ctx, terminal)
	r.metrics.ObserveOutbound(string(terminal.Status), result.Blocked)
}

// RecordStatus appends a provider delivery-status callback as a new event;
// the original outbound events are never mutated.
func (r *Recorder) RecordStatus(ctx context.Context, clinicID string, update delivery.StatusUpdate) {
	if r == nil || r.store == nil {
		return
	}
	r.append(ctx, &Event{
		ClinicID:          clinicID,
		Recipient:         update.Recipient,
		MessageID:         uuid.NewString(),
		Direction:         DirectionStatusUpdate,
		Type:              "status",
		Status:            EventStatus(update.Status),
		ProviderMessageID: update.ProviderMessageID,
	})
}

func (r *Recorder) append(ctx context.Context, evt *Event) {
	if err := r.store.Append(ctx, evt); err != nil {
		r.logger.Error("ledger: append failed",
			"error", err,
			"clinic_id", evt.ClinicID,
			"direction", evt.Direction,
			"message_id", evt.MessageID,
		)
	}
}
