package delivery

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// AllowlistProvider wraps a Provider with the per-clinic recipient allowlist.
// Blocked recipients get a synthetic success result and no network call is
// made, so sandbox clinics can be exercised end to end without leaking
// messages to real numbers.
type AllowlistProvider struct {
	inner  Provider
	clinic *clinics.Clinic
	logger *logging.Logger
}

var _ Provider = (*AllowlistProvider)(nil)

// NewAllowlistProvider layers the allowlist check over the given provider.
func NewAllowlistProvider(inner Provider, clinic *clinics.Clinic, logger *logging.Logger) *AllowlistProvider {
	if logger == nil {
		logger = logging.Default()
	}
	return &AllowlistProvider{inner: inner, clinic: clinic, logger: logger}
}

func (p *AllowlistProvider) SendText(ctx context.Context, to, body string) SendResult {
	if blocked, result := p.check(to); blocked {
		return result
	}
	return p.inner.SendText(ctx, to, body)
}

func (p *AllowlistProvider) SendButtons(ctx context.Context, to, body string, buttons []Button) SendResult {
	if blocked, result := p.check(to); blocked {
		return result
	}
	return p.inner.SendButtons(ctx, to, body, buttons)
}

func (p *AllowlistProvider) SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) SendResult {
	if blocked, result := p.check(to); blocked {
		return result
	}
	return p.inner.SendList(ctx, to, body, buttonLabel, sections)
}

func (p *AllowlistProvider) ParseIncoming(payload []byte) ([]InboundMessage, []StatusUpdate, error) {
	return p.inner.ParseIncoming(payload)
}

func (p *AllowlistProvider) check(to string) (bool, SendResult) {
	if p.clinic.RecipientAllowed(to) {
		return false, SendResult{}
	}
	p.logger.Info("delivery: send blocked by allowlist",
		"clinic_id", p.clinic.ID, "to", to)
	return true, SendResult{
		MessageID: uuid.NewString(),
		Status:    SendStatusBlocked,
		Blocked:   true,
	}
}
