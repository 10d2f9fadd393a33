package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zapagenda/zapagenda-backend/internal/app/bootstrap"
	appconfig "github.com/zapagenda/zapagenda-backend/internal/config"
	"github.com/zapagenda/zapagenda-backend/internal/digest"
	"github.com/zapagenda/zapagenda-backend/internal/observability/metrics"
	"github.com/zapagenda/zapagenda-backend/internal/reminders"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

const sweepTimeout = 2 * time.Minute

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sweeper",
		"interval", cfg.SweepInterval.String(),
		"digest_hour", cfg.DigestHour,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for session storage")
		os.Exit(1)
	}
	defer redisClient.Close()

	// The sweeper never triggers handoffs, so it carries no AWS email client.
	email := bootstrap.BuildEmailSender(cfg, nil, logger)
	components := bootstrap.BuildComponents(cfg, logger, pool, redisClient, email)

	sweeper := reminders.NewSweeper(
		components.Reminders,
		components.Directory,
		components.Templates,
		reminders.ProviderFactory(components.Factory.ProviderFor),
		components.Recorder,
		logger,
	)
	digestJob := digest.NewJob(
		components.Directory,
		components.Booking,
		components.Templates,
		digest.ProviderFactory(components.Factory.ProviderFor),
		components.Recorder,
		cfg.DefaultTimezone,
		logger,
	)
	sweepMetrics := metrics.NewSweepMetrics(nil)
	components.Recorder.WithMetrics(metrics.NewMessagingMetrics(nil))

	// Metrics endpoint for scraping; the sweeper has no other HTTP surface.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Warn("invalid default timezone, using UTC", "timezone", cfg.DefaultTimezone)
		loc = time.UTC
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	var lastDigestDate string
	runSweep(ctx, sweeper, sweepMetrics, logger)
	lastDigestDate = maybeRunDigest(ctx, digestJob, sweepMetrics, logger, loc, cfg.DigestHour, lastDigestDate)

	for {
		select {
		case <-ticker.C:
			runSweep(ctx, sweeper, sweepMetrics, logger)
			lastDigestDate = maybeRunDigest(ctx, digestJob, sweepMetrics, logger, loc, cfg.DigestHour, lastDigestDate)
		case <-stop:
			logger.Info("sweeper stopped")
			return
		}
	}
}

func runSweep(ctx context.Context, sweeper *reminders.Sweeper, m *metrics.SweepMetrics, logger *logging.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	stats, err := sweeper.ProcessDue(sweepCtx)
	m.ObserveSweepDuration(time.Since(start).Seconds())
	if err != nil {
		logger.Error("reminder sweep failed", "error", err)
		return
	}
	for i := 0; i < stats.Sent; i++ {
		m.ObserveReminder("sent")
	}
	for i := 0; i < stats.Failed; i++ {
		m.ObserveReminder("failed")
	}
	if stats.Processed > 0 {
		logger.Info("reminder sweep completed",
			"processed", stats.Processed,
			"sent", stats.Sent,
			"failed", stats.Failed,
		)
	}
}

// maybeRunDigest runs the daily digest once per calendar day, after the
// configured hour in the default timezone. Returns the date the digest last
// ran for.
func maybeRunDigest(ctx context.Context, job *digest.Job, m *metrics.SweepMetrics, logger *logging.Logger, loc *time.Location, hour int, lastDate string) string {
	now := time.Now().In(loc)
	today := now.Format("2006-01-02")
	if now.Hour() < hour || today == lastDate {
		return lastDate
	}

	digestCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	stats, err := job.Run(digestCtx)
	if err != nil {
		logger.Error("daily digest failed", "error", err)
		return lastDate
	}
	for i := 0; i < stats.Sent; i++ {
		m.ObserveDigest("sent")
	}
	for i := 0; i < stats.Skipped; i++ {
		m.ObserveDigest("skipped")
	}
	for i := 0; i < stats.Failed; i++ {
		m.ObserveDigest("failed")
	}
	logger.Info("daily digest completed",
		"date", today,
		"clinics", stats.Clinics,
		"sent", stats.Sent,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return today
}
