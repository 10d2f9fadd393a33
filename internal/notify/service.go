package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Service alerts clinic staff about conversations that need a person.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. email may be nil, in which
// case handoffs are logged only.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// NotifyHandoff emails the clinic that a patient asked for a human. The
// conversation is already parked when this runs, so a notification failure
// is reported but must not undo the handoff.
func (s *Service) NotifyHandoff(ctx context.Context, clinic *clinics.Clinic, recipient, lastMessage string) error {
	s.logger.Info("notify: human handoff requested",
		"clinic_id", clinic.ID, "recipient", recipient)

	if s.email == nil || clinic.ContactEmail == "" {
		s.logger.Debug("notify: no handoff email configured", "clinic_id", clinic.ID)
		return nil
	}

	body := fmt.Sprintf(
		"Um paciente pediu atendimento humano no WhatsApp.\n\nClínica: %s\nNúmero: %s\nÚltima mensagem: %s\nQuando: %s\n\nResponda pelo WhatsApp da clínica. O assistente fica em silêncio nesta conversa até a sessão ser liberada no painel.",
		clinic.Name, recipient, lastMessage, time.Now().UTC().Format(time.RFC3339),
	)

	err := s.email.Send(ctx, EmailMessage{
		To:      clinic.ContactEmail,
		ToName:  clinic.Name,
		Subject: fmt.Sprintf("[ZapAgenda] Atendimento humano solicitado · %s", recipient),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: handoff email: %w", err)
	}
	return nil
}
