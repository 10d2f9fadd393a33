package queue

import "context"

// Message is one queued payload with the handle needed to acknowledge it.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Client is the transport the turn worker consumes from. Delivery is
// at-least-once; consumers dedupe on their own.
type Client interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}
