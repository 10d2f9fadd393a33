package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/ledger"
	"github.com/zapagenda/zapagenda-backend/internal/templates"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// ProviderFactory hands out the tenant-scoped delivery provider.
type ProviderFactory func(clinic *clinics.Clinic) delivery.Provider

// Stats summarizes one digest run.
type Stats struct {
	Clinics int `json:"clinics"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Job sends each clinic its next-day appointment rundown. Clinics with an
// empty schedule are skipped, not failed.
type Job struct {
	directory   clinics.Directory
	booking     booking.Scheduler
	templates   *templates.Resolver
	providerFor ProviderFactory
	recorder    *ledger.Recorder
	logger      *logging.Logger
	defaultTZ   string
	now         func() time.Time
}

// NewJob creates a daily digest job.
func NewJob(directory clinics.Directory, scheduler booking.Scheduler, resolver *templates.Resolver, providerFor ProviderFactory, recorder *ledger.Recorder, defaultTZ string, logger *logging.Logger) *Job {
	if logger == nil {
		logger = logging.Default()
	}
	return &Job{
		directory:   directory,
		booking:     scheduler,
		templates:   resolver,
		providerFor: providerFor,
		recorder:    recorder,
		logger:      logger,
		defaultTZ:   defaultTZ,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (j *Job) WithClock(now func() time.Time) *Job {
	j.now = now
	return j
}

// Run sends tomorrow's digest to every active clinic with a contact number.
// A single clinic failing never aborts the run.
func (j *Job) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	active, err := j.directory.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("digest: list clinics: %w", err)
	}

	for i := range active {
		clinic := &active[i]
		if clinic.ContactNumber == "" {
			continue
		}
		stats.Clinics++

		sent, err := j.runOne(ctx, clinic)
		switch {
		case err != nil:
			stats.Failed++
			j.logger.Error("digest: clinic digest failed", "clinic_id", clinic.ID, "error", err)
		case sent:
			stats.Sent++
		default:
			stats.Skipped++
		}
	}

	j.logger.Info("digest: run complete",
		"clinics", stats.Clinics, "sent", stats.Sent, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

func (j *Job) runOne(ctx context.Context, clinic *clinics.Clinic) (bool, error) {
	loc := j.location(clinic)
	tomorrow := j.now().In(loc).AddDate(0, 0, 1)
	date := tomorrow.Format(time.DateOnly)

	appts, err := j.booking.ConfirmedOn(ctx, clinic.ID, date)
	if err != nil {
		return false, fmt.Errorf("list appointments: %w", err)
	}
	if len(appts) == 0 {
		return false, nil
	}

	tmpl := j.templates.Render(ctx, clinic.ID, templates.KeyDailyDigest, map[string]string{
		"date":  tomorrow.Format("02/01/2006"),
		"items": formatItems(appts, loc),
	})

	result := j.providerFor(clinic).SendText(ctx, clinic.ContactNumber, tmpl.Body)
	j.recorder.RecordOutbound(ctx, clinic.ID, clinic.ContactNumber, "text", tmpl.Body, result)
	if result.Failed() {
		return false, fmt.Errorf("send digest: %s", result.Error)
	}
	return true, nil
}

func (j *Job) location(clinic *clinics.Clinic) *time.Location {
	if clinic.Timezone != "" {
		if loc, err := time.LoadLocation(clinic.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(j.defaultTZ); err == nil {
		return loc
	}
	return time.UTC
}

func formatItems(appts []booking.Appointment, loc *time.Location) string {
	lines := make([]string, 0, len(appts))
	for _, appt := range appts {
		line := fmt.Sprintf("%s · %s", appt.StartsAt.In(loc).Format("15:04"), appt.ServiceName)
		if appt.PatientName != "" {
			line += " · " + appt.PatientName
		} else if appt.Recipient != "" {
			line += " · " + appt.Recipient
		}
		if len(appt.Areas) > 0 {
			line += " · " + strings.Join(appt.Areas, ", ")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
