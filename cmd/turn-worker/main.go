package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/zapagenda/zapagenda-backend/cmd/mainconfig"
	"github.com/zapagenda/zapagenda-backend/internal/app/bootstrap"
	appconfig "github.com/zapagenda/zapagenda-backend/internal/config"
	"github.com/zapagenda/zapagenda-backend/internal/dialog"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

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

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsConfig)
	turnQueue := bootstrap.BuildQueue(cfg, sqsClient, logger)

	email := bootstrap.BuildEmailSender(cfg, sesv2.NewFromConfig(awsConfig), logger)
	components := bootstrap.BuildComponents(cfg, logger, pool, redisClient, email)

	worker := dialog.NewWorker(
		components.Engine,
		turnQueue,
		components.Directory,
		logger,
		dialog.WithWorkerCount(cfg.WorkerCount),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker.Start(runCtx)
	logger.Info("turn worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down turn worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("turn worker stopped")
	case <-doneCtx.Done():
		logger.Error("turn worker shutdown timed out", "error", doneCtx.Err())
	}
}
