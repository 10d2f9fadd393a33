package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

type recordingProvider struct {
	calls int
}

func (p *recordingProvider) SendText(ctx context.Context, to, body string) SendResult {
	p.calls++
	return SendResult{MessageID: "m1", Status: SendStatusSent}
}

func (p *recordingProvider) SendButtons(ctx context.Context, to, body string, buttons []Button) SendResult {
	p.calls++
	return SendResult{MessageID: "m1", Status: SendStatusSent}
}

func (p *recordingProvider) SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) SendResult {
	p.calls++
	return SendResult{MessageID: "m1", Status: SendStatusSent}
}

func (p *recordingProvider) ParseIncoming(payload []byte) ([]InboundMessage, []StatusUpdate, error) {
	return nil, nil, nil
}

func sandboxClinic(allowed ...string) *clinics.Clinic {
	return &clinics.Clinic{
		ID:                "clinic-1",
		Sandbox:           true,
		AllowedRecipients: allowed,
	}
}

func TestAllowlistProvider_BlockedRecipientNeverReachesTransport(t *testing.T) {
	inner := &recordingProvider{}
	provider := NewAllowlistProvider(inner, sandboxClinic("5511988887777"), logging.Default())
	ctx := context.Background()

	results := []SendResult{
		provider.SendText(ctx, "5511900000000", "oi"),
		provider.SendButtons(ctx, "5511900000000", "oi", []Button{{ID: "a", Label: "A"}}),
		provider.SendList(ctx, "5511900000000", "oi", "Opções", nil),
	}

	assert.Equal(t, 0, inner.calls)
	for _, result := range results {
		// Blocked sends report a synthetic success, not a failure.
		assert.Equal(t, SendStatusBlocked, result.Status)
		assert.True(t, result.Blocked)
		assert.False(t, result.Failed())
		assert.NotEmpty(t, result.MessageID)
	}
}

func TestAllowlistProvider_AllowedRecipientPassesThrough(t *testing.T) {
	inner := &recordingProvider{}
	provider := NewAllowlistProvider(inner, sandboxClinic("5511988887777"), logging.Default())

	result := provider.SendText(context.Background(), "5511988887777", "oi")

	require.Equal(t, 1, inner.calls)
	assert.Equal(t, SendStatusSent, result.Status)
}

func TestAllowlistProvider_EmptyAllowlistAllowsEveryone(t *testing.T) {
	inner := &recordingProvider{}
	provider := NewAllowlistProvider(inner, sandboxClinic(), logging.Default())

	provider.SendText(context.Background(), "5511900000000", "oi")
	assert.Equal(t, 1, inner.calls)
}
