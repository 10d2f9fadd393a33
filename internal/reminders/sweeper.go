package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// ProviderFactory hands out the tenant-scoped delivery provider.
type ProviderFactory func(clinic *clinics.Clinic) delivery.Provider

// Stats summarizes one sweep.
type Stats struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// Sweeper sends due reminders. One reminder failing never aborts the sweep;
// it is marked failed and the loop moves on.
type Sweeper struct {
	store       *Store
	directory   clinics.Directory
	templates   *templates.Resolver
	providerFor ProviderFactory
	recorder    *ledger.Recorder
	logger      *logging.Logger
	batchSize   int
	now         func() time.Time
}

// NewSweeper creates a reminder sweeper.
func NewSweeper(store *Store, directory clinics.Directory, resolver *templates.Resolver, providerFor ProviderFactory, recorder *ledger.Recorder, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		store:       store,
		directory:   directory,
		templates:   resolver,
		providerFor: providerFor,
		recorder:    recorder,
		logger:      logger,
		batchSize:   100,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// ProcessDue sends every pending reminder whose send time has arrived.
func (s *Sweeper) ProcessDue(ctx context.Context) (Stats, error) {
	var stats Stats
	due, err := s.store.ListDue(ctx, s.now().UTC(), s.batchSize)
	if err != nil {
		return stats, fmt.Errorf("reminders: sweep: %w", err)
	}
	if len(due) == 0 {
		return stats, nil
	}

	s.logger.Info("reminders: sweeping due reminders", "count", len(due))

	// Reminders for the same clinic cluster inside a sweep; one directory
	// lookup per clinic is enough.
	cache := map[string]*clinics.Clinic{}

	for i := range due {
		r := &due[i]
		stats.Processed++
		if err := s.processOne(ctx, r, cache); err != nil {
			stats.Failed++
			s.logger.Error("reminders: reminder failed",
				"id", r.ID, "clinic_id", r.ClinicID, "error", err)
			if _, markErr := s.store.MarkFailed(ctx, r.ID, err.Error()); markErr != nil {
				s.logger.Error("reminders: mark failed errored", "id", r.ID, "error", markErr)
			}
			continue
		}
		stats.Sent++
	}
	return stats, nil
}

func (s *Sweeper) processOne(ctx context.Context, r *Reminder, cache map[string]*clinics.Clinic) error {
	clinic, ok := cache[r.ClinicID]
	if !ok {
		var err error
		clinic, err = s.directory.Get(ctx, r.ClinicID)
		if err != nil {
			return fmt.Errorf("resolve clinic: %w", err)
		}
		cache[r.ClinicID] = clinic
	}

	starts := r.StartsAt
	if loc, err := time.LoadLocation(clinic.Timezone); err == nil {
		starts = starts.In(loc)
	}

	tmpl := s.templates.Render(ctx, clinic.ID, templates.KeyReminder24h, map[string]string{
		"name":    r.PatientName,
		"service": r.ServiceName,
		"date":    starts.Format("02/01/2006"),
		"time":    starts.Format("15:04"),
		"clinic":  clinic.Name,
	})

	result := s.providerFor(clinic).SendText(ctx, r.Recipient, tmpl.Body)
	s.recorder.RecordOutbound(ctx, clinic.ID, r.Recipient, "text", tmpl.Body, result)
	if result.Failed() {
		return fmt.Errorf("send reminder: %s", result.Error)
	}

	sent, err := s.store.MarkSent(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if !sent {
		s.logger.Warn("reminders: reminder no longer pending after send", "id", r.ID)
	}
	return nil
}
