package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/zapagenda/zapagenda-backend/internal/config"
	"github.com/zapagenda/zapagenda-backend/internal/queue"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPool opens the pgx connection pool.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open pool: %w", err)
	}
	return pool, nil
}

// BuildQueue selects the turn queue transport: in-memory for local
// development, SQS otherwise.
func BuildQueue(cfg *appconfig.Config, sqsClient *sqs.Client, logger *logging.Logger) queue.Client {
	if cfg.UseMemoryQueue || strings.TrimSpace(cfg.TurnQueueURL) == "" {
		logger.Info("using in-memory turn queue")
		return queue.NewMemoryQueue(0)
	}
	return queue.NewSQSQueue(sqsClient, cfg.TurnQueueURL)
}
