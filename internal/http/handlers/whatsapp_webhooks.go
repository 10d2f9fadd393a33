package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	observemetrics "github.com/zapagenda/zapagenda-backend/internal/observability/metrics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

type turnPublisher interface {
	Enqueue(ctx context.Context, clinicID string, msg delivery.InboundMessage) error
}

type processedTracker interface {
	MarkProcessed(ctx context.Context, clinicID, providerMessageID string) (bool, error)
}

// WhatsAppWebhookHandler handles Meta webhook verification and event
// delivery for every tenant number.
type WhatsAppWebhookHandler struct {
	directory   clinics.Directory
	processed   processedTracker
	publisher   turnPublisher
	recorder    *ledger.Recorder
	logger      *logging.Logger
	verifyToken string
	metrics     *observemetrics.MessagingMetrics
}

type WhatsAppWebhookConfig struct {
	Directory   clinics.Directory
	Processed   processedTracker
	Publisher   turnPublisher
	Recorder    *ledger.Recorder
	Logger      *logging.Logger
	VerifyToken string
	Metrics     *observemetrics.MessagingMetrics
}

func NewWhatsAppWebhookHandler(cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		directory:   cfg.Directory,
		processed:   cfg.Processed,
		publisher:   cfg.Publisher,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
		verifyToken: cfg.VerifyToken,
		metrics:     cfg.Metrics,
	}
}

// HandleVerify answers Meta's webhook subscription handshake.
func (h *WhatsAppWebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("hub.mode") == "subscribe" && query.Get("hub.verify_token") == h.verifyToken && h.verifyToken != "" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(query.Get("hub.challenge")))
		return
	}
	h.logger.Warn("webhook verification rejected", "mode", query.Get("hub.mode"))
	http.Error(w, "verification failed", http.StatusForbidden)
}

// HandleEvents processes one webhook delivery: messages are deduped and
// queued per clinic, status callbacks go straight to the ledger. Meta
// retries non-2xx responses, so only enqueue failures report an error.
func (h *WhatsAppWebhookHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	messages, statuses, err := delivery.ParseWebhookPayload(body)
	if err != nil {
		h.logger.Warn("undecodable webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var enqueueFailed bool
	for _, msg := range messages {
		if err := h.handleInbound(r.Context(), msg); err != nil {
			enqueueFailed = true
			h.logger.Error("inbound message not queued",
				"error", err, "provider_message_id", msg.ProviderMessageID)
		}
		h.metrics.ObserveWebhookLatency(string(msg.Type), time.Since(start).Seconds())
	}
	for _, update := range statuses {
		h.handleStatus(r.Context(), update)
	}

	if enqueueFailed {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WhatsAppWebhookHandler) handleInbound(ctx context.Context, msg delivery.InboundMessage) error {
	clinic, err := h.directory.LookupByPhoneNumberID(ctx, msg.PhoneNumberID)
	if errors.Is(err, clinics.ErrNotFound) {
		h.logger.Warn("inbound message for unknown number",
			"phone_number_id", msg.PhoneNumberID, "from", msg.From)
		h.metrics.ObserveInbound(string(msg.Type), "unknown_clinic")
		return nil
	}
	if err != nil {
		h.metrics.ObserveInbound(string(msg.Type), "error")
		return err
	}

	if h.processed != nil {
		fresh, err := h.processed.MarkProcessed(ctx, clinic.ID, msg.ProviderMessageID)
		if err != nil {
			h.metrics.ObserveInbound(string(msg.Type), "error")
			return err
		}
		if !fresh {
			h.metrics.ObserveInbound(string(msg.Type), "duplicate")
			return nil
		}
	}

	if err := h.publisher.Enqueue(ctx, clinic.ID, msg); err != nil {
		h.metrics.ObserveInbound(string(msg.Type), "error")
		return err
	}
	h.metrics.ObserveInbound(string(msg.Type), "queued")
	return nil
}

func (h *WhatsAppWebhookHandler) handleStatus(ctx context.Context, update delivery.StatusUpdate) {
	clinic, err := h.directory.LookupByPhoneNumberID(ctx, update.PhoneNumberID)
	if err != nil {
		h.logger.Warn("status update for unknown number",
			"phone_number_id", update.PhoneNumberID, "error", err)
		return
	}
	h.recorder.RecordStatus(ctx, clinic.ID, update)
}

// HealthCheck reports liveness.
func (h *WhatsAppWebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
