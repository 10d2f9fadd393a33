package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

var whatsappTracer = otel.Tracer("zapagenda.internal.delivery.whatsapp")

// MaxButtons is the Cloud API limit for quick-reply buttons per message.
const MaxButtons = 3

// WhatsAppConfig carries the per-clinic credentials and shared settings for
// the Cloud API client.
type WhatsAppConfig struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	Timeout       time.Duration
}

// WhatsAppProvider sends messages through the Meta WhatsApp Cloud API.
type WhatsAppProvider struct {
	cfg        WhatsAppConfig
	httpClient *http.Client
	logger     *logging.Logger
}

var _ Provider = (*WhatsAppProvider)(nil)

// NewWhatsAppProvider builds a Cloud API client. The http.Client may be
// shared across providers; when nil one with the configured timeout is used.
func NewWhatsAppProvider(cfg WhatsAppConfig, httpClient *http.Client, logger *logging.Logger) *WhatsAppProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com/v19.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppProvider{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SendText dispatches a plain text message.
func (p *WhatsAppProvider) SendText(ctx context.Context, to, body string) SendResult {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	return p.post(ctx, "send_text", to, payload)
}

// SendButtons dispatches an interactive button message. On any failure the
// message is degraded to numbered text preserving option order, and the
// result of that fallback send is returned.
func (p *WhatsAppProvider) SendButtons(ctx context.Context, to, body string, buttons []Button) SendResult {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	rows := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": b.Label},
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": rows},
		},
	}
	result := p.post(ctx, "send_buttons", to, payload)
	if result.Failed() {
		p.logger.Warn("whatsapp: button send failed, degrading to text",
			"to", to, "error", result.Error)
		return p.SendText(ctx, to, NumberedFallback(body, buttons))
	}
	return result
}

// SendList dispatches an interactive list message, degrading to numbered
// text on failure the same way SendButtons does.
func (p *WhatsAppProvider) SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) SendResult {
	apiSections := make([]map[string]any, 0, len(sections))
	var flat []Button
	for _, section := range sections {
		rows := make([]map[string]any, 0, len(section.Buttons))
		for _, b := range section.Buttons {
			rows = append(rows, map[string]any{"id": b.ID, "title": b.Label})
			flat = append(flat, b)
		}
		apiSections = append(apiSections, map[string]any{
			"title": section.Title,
			"rows":  rows,
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"button": buttonLabel, "sections": apiSections},
		},
	}
	result := p.post(ctx, "send_list", to, payload)
	if result.Failed() {
		p.logger.Warn("whatsapp: list send failed, degrading to text",
			"to", to, "error", result.Error)
		return p.SendText(ctx, to, NumberedFallback(body, flat))
	}
	return result
}

// ParseIncoming normalizes a webhook payload.
func (p *WhatsAppProvider) ParseIncoming(payload []byte) ([]InboundMessage, []StatusUpdate, error) {
	return ParseWebhookPayload(payload)
}

// post sends the payload and folds every transport or API failure into the
// returned result. Errors never cross the provider boundary.
func (p *WhatsAppProvider) post(ctx context.Context, operation, to string, payload map[string]any) SendResult {
	ctx, span := whatsappTracer.Start(ctx, "delivery.whatsapp."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("zapagenda.to", to),
		attribute.String("zapagenda.phone_number_id", p.cfg.PhoneNumberID),
	)

	result := SendResult{MessageID: uuid.NewString(), Status: SendStatusFailed}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("marshal payload: %v", err)
		span.RecordError(err)
		return result
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("build request: %v", err)
		span.RecordError(err)
		return result
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("transport: %v", err)
		span.RecordError(err)
		p.logger.Error("whatsapp send failed", "operation", operation, "to", to, "error", err)
		return result
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		p.logger.Error("whatsapp send rejected",
			"operation", operation, "to", to, "status", resp.StatusCode)
		return result
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && len(parsed.Messages) > 0 {
		result.ProviderMessageID = parsed.Messages[0].ID
	}
	result.Status = SendStatusSent
	p.logger.Info("whatsapp message sent", "operation", operation, "to", to,
		"provider_message_id", result.ProviderMessageID)
	return result
}

// NumberedFallback renders a button/list body as plain text with a numbered
// enumeration of the options, preserving their order.
func NumberedFallback(body string, buttons []Button) string {
	var sb strings.Builder
	sb.WriteString(body)
	for i, b := range buttons {
		sb.WriteString(fmt.Sprintf("\n%d - %s", i+1, b.Label))
	}
	return sb.String()
}
