package delivery

import (
	"net/http"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Factory builds tenant-scoped providers. A single http.Client is shared by
// every provider it hands out; per-clinic state is limited to credentials.
type Factory struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logging.Logger
}

// FactoryConfig carries the channel-wide settings.
type FactoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewFactory creates a provider factory.
func NewFactory(cfg FactoryConfig, logger *logging.Logger) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Factory{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Provider returns the delivery provider for a clinic, with the allowlist
// wrapper applied. WhatsApp is the only channel today; adding another means
// switching here, not in the dialog engine.
func (f *Factory) Provider(clinic *clinics.Clinic) Provider {
	whatsapp := NewWhatsAppProvider(WhatsAppConfig{
		BaseURL:       f.baseURL,
		Token:         clinic.WhatsAppToken,
		PhoneNumberID: clinic.WhatsAppPhoneNumberID,
		Timeout:       f.timeout,
	}, f.httpClient, f.logger)
	return NewAllowlistProvider(whatsapp, clinic, f.logger)
}

// ProviderFunc adapts the factory to the narrow interface the engine and
// sweepers consume.
type ProviderFunc func(clinic *clinics.Clinic) Provider

// ProviderFor satisfies ProviderFunc.
func (f *Factory) ProviderFor(clinic *clinics.Clinic) Provider {
	return f.Provider(clinic)
}
