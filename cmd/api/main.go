package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zapagenda/zapagenda-backend/cmd/mainconfig"
	"github.com/zapagenda/zapagenda-backend/internal/api/router"
	"github.com/zapagenda/zapagenda-backend/internal/app/bootstrap"
	appconfig "github.com/zapagenda/zapagenda-backend/internal/config"
	"github.com/zapagenda/zapagenda-backend/internal/dialog"
	"github.com/zapagenda/zapagenda-backend/internal/http/handlers"
	"github.com/zapagenda/zapagenda-backend/internal/inbox"
	"github.com/zapagenda/zapagenda-backend/internal/observability/metrics"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting zapagenda API server",
		"env", cfg.Env,
		"port", cfg.Port,
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

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	turnQueue := bootstrap.BuildQueue(cfg, sqsClient, logger)
	publisher := dialog.NewPublisher(turnQueue)
	processed := inbox.NewProcessedStore(dynamoClient, cfg.ProcessedTable, logger)

	email := bootstrap.BuildEmailSender(cfg, sesv2.NewFromConfig(awsCfg), logger)
	components := bootstrap.BuildComponents(cfg, logger, pool, redisClient, email)

	messagingMetrics := metrics.NewMessagingMetrics(nil)
	components.Recorder.WithMetrics(messagingMetrics)

	webhookHandler := handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{
		Directory:   components.Directory,
		Processed:   processed,
		Publisher:   publisher,
		Recorder:    components.Recorder,
		Logger:      logger,
		VerifyToken: cfg.WhatsAppVerifyToken,
		Metrics:     messagingMetrics,
	})

	adminHandler := handlers.NewAdminHandler(handlers.AdminConfig{
		Directory: components.Directory,
		Events:    components.Ledger,
		Sessions:  components.Sessions,
		Reminders: components.Reminders,
		Templates: components.TemplateStore,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:          logger,
		Webhooks:        webhookHandler,
		Admin:           adminHandler,
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	// With the in-memory queue there is no separate worker binary, so the
	// turn consumer runs inside the API process.
	var worker *dialog.Worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.UseMemoryQueue {
		worker = dialog.NewWorker(components.Engine, turnQueue, components.Directory, logger,
			dialog.WithWorkerCount(cfg.WorkerCount))
		worker.Start(workerCtx)
		logger.Info("in-process turn worker started", "workers", cfg.WorkerCount)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if worker != nil {
		stopWorker()
		worker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
