package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction distinguishes inbound traffic, outbound traffic, and provider
// status callbacks.
type Direction string

const (
	DirectionInbound      Direction = "inbound"
	DirectionOutbound     Direction = "outbound"
	DirectionStatusUpdate Direction = "status_update"
)

// EventStatus is the delivery status carried by a ledger event.
type EventStatus string

const (
	StatusReceived  EventStatus = "received"
	StatusQueued    EventStatus = "queued"
	StatusSent      EventStatus = "sent"
	StatusFailed    EventStatus = "failed"
	StatusBlocked   EventStatus = "blocked"
	StatusDelivered EventStatus = "delivered"
	StatusRead      EventStatus = "read"
)

// Event is one immutable row of the conversation ledger. Status changes for
// a logical message are new events sharing MessageID, never updates.
type Event struct {
	ID                uuid.UUID         `json:"id"`
	ClinicID          string            `json:"clinic_id"`
	Recipient         string            `json:"recipient"`
	ConversationID    string            `json:"conversation_id"`
	MessageID         string            `json:"message_id"`
	Direction         Direction         `json:"direction"`
	Type              string            `json:"type"`
	Content           string            `json:"content"`
	Status            EventStatus       `json:"status"`
	ProviderMessageID string            `json:"provider_message_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Seq               int64             `json:"seq"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ConversationID derives the composite partition key for a conversation.
func ConversationID(clinicID, recipient string) string {
	return fmt.Sprintf("%s:%s", clinicID, recipient)
}
