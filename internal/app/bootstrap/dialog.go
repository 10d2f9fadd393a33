package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	appconfig "github.com/zapagenda/zapagenda-backend/internal/config"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/demo"
	"github.com/zapagenda/zapagenda-backend/internal/dialog"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/notify"
	"github.com/zapagenda/zapagenda-backend/internal/reminders"
	"github.com/zapagenda/zapagenda-backend/internal/session"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Components holds the shared stores and services every binary wires from.
type Components struct {
	Directory     *clinics.Store
	Sessions      *session.Store
	Ledger        *ledger.Store
	Recorder      *ledger.Recorder
	TemplateStore *templates.Store
	Templates     *templates.Resolver
	Reminders     *reminders.Store
	Scheduler     *reminders.Scheduler
	Factory       *delivery.Factory
	Booking       *demo.MockBooking
	Notifier      *notify.Service
	Engine        *dialog.Engine
}

// BuildComponents wires stores and the dialog engine. The booking
// collaborator is the in-memory one until a scheduling engine integration
// is configured; everything downstream depends only on the interfaces.
func BuildComponents(cfg *appconfig.Config, logger *logging.Logger, pool *pgxpool.Pool, redisClient *redis.Client, email notify.EmailSender) *Components {
	c := &Components{
		Directory:     clinics.NewStore(pool),
		Sessions:      session.NewStore(redisClient, nil),
		Ledger:        ledger.NewStore(pool),
		TemplateStore: templates.NewStore(pool),
		Reminders:     reminders.NewStore(pool),
		Booking:       demo.NewMockBooking(),
	}
	c.Recorder = ledger.NewRecorder(c.Ledger, logger)
	c.Templates = templates.NewResolver(c.TemplateStore, logger)
	c.Scheduler = reminders.NewScheduler(c.Reminders, cfg.ReminderLead, logger)
	c.Factory = delivery.NewFactory(delivery.FactoryConfig{
		BaseURL: cfg.WhatsAppAPIBaseURL,
		Timeout: cfg.WhatsAppSendTimeout,
	}, logger)
	c.Notifier = notify.NewService(email, logger)

	var availability booking.Availability = c.Booking
	var scheduler booking.Scheduler = c.Booking

	c.Engine = dialog.NewEngine(dialog.Config{
		Sessions:        c.Sessions,
		Availability:    availability,
		Booking:         scheduler,
		Reminders:       c.Scheduler,
		Templates:       c.Templates,
		ProviderFor:     c.Factory.ProviderFor,
		Recorder:        c.Recorder,
		Notifier:        c.Notifier,
		Logger:          logger,
		DefaultTimezone: cfg.DefaultTimezone,
	})
	return c
}

// BuildEmailSender picks the handoff alert transport: SendGrid when an API
// key is configured, then SES when the binary carries an AWS client and a
// sender address, otherwise a logging stub.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		return sender
	}
	if cfg.SESFromEmail != "" {
		if sender := notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
