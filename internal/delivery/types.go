package delivery

import (
	"context"
	"time"
)

// MessageType classifies an inbound payload. Exactly one type is assigned
// per message, in the precedence order implemented by ParseWebhookPayload.
type MessageType string

const (
	TypeText           MessageType = "text"
	TypeButtonResponse MessageType = "button_response"
	TypeListResponse   MessageType = "list_response"
	TypeImage          MessageType = "image"
	TypeAudio          MessageType = "audio"
	TypeVideo          MessageType = "video"
	TypeDocument       MessageType = "document"
)

// SendStatus is the terminal outcome of a send attempt.
type SendStatus string

const (
	SendStatusSent    SendStatus = "sent"
	SendStatusFailed  SendStatus = "failed"
	SendStatusBlocked SendStatus = "blocked"
)

// Button is a quick-reply option attached to an outbound message.
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Section groups list rows under a title for list messages.
type Section struct {
	Title   string   `json:"title"`
	Buttons []Button `json:"buttons"`
}

// SendResult reports the outcome of a send. Transport failures are folded
// into the result; send methods never surface errors to callers.
type SendResult struct {
	MessageID         string     `json:"message_id"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	Status            SendStatus `json:"status"`
	Blocked           bool       `json:"blocked,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// Failed reports whether the send did not reach the channel.
func (r SendResult) Failed() bool {
	return r.Status == SendStatusFailed
}

// InboundMessage is a normalized incoming user message.
type InboundMessage struct {
	ProviderMessageID string      `json:"provider_message_id"`
	PhoneNumberID     string      `json:"phone_number_id"`
	From              string      `json:"from"`
	Timestamp         time.Time   `json:"timestamp"`
	Type              MessageType `json:"type"`
	Content           string      `json:"content"`
	ButtonID          string      `json:"button_id,omitempty"`
	ButtonLabel       string      `json:"button_label,omitempty"`
	ReplyToID         string      `json:"reply_to_id,omitempty"`
}

// StatusUpdate is a normalized delivery-status callback.
type StatusUpdate struct {
	ProviderMessageID string    `json:"provider_message_id"`
	PhoneNumberID     string    `json:"phone_number_id"`
	Recipient         string    `json:"recipient"`
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
}

// Provider abstracts the chat channel. One implementation exists today
// (WhatsApp Cloud API); tenant-specific construction happens in the Factory
// so other channels can be added without touching the dialog engine.
type Provider interface {
	SendText(ctx context.Context, to, body string) SendResult
	SendButtons(ctx context.Context, to, body string, buttons []Button) SendResult
	SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) SendResult
	ParseIncoming(payload []byte) ([]InboundMessage, []StatusUpdate, error)
}
