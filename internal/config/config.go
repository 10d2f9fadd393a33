package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// WhatsApp Cloud API
	WhatsAppAPIBaseURL  string
	WhatsAppVerifyToken string
	WhatsAppSendTimeout time.Duration

	// Dialog engine
	DefaultTimezone string
	ReminderLead    time.Duration
	SweepInterval   time.Duration
	DigestHour      int

	// Queue / AWS
	UseMemoryQueue      bool
	WorkerCount         int
	TurnQueueURL        string
	ProcessedTable      string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Handoff alert email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// Admin API
	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		WhatsAppAPIBaseURL:  getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppSendTimeout: getEnvAsDuration("WHATSAPP_SEND_TIMEOUT", 10*time.Second),

		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "America/Sao_Paulo"),
		ReminderLead:    getEnvAsDuration("REMINDER_LEAD", 24*time.Hour),
		SweepInterval:   getEnvAsDuration("SWEEP_INTERVAL", 15*time.Minute),
		DigestHour:      getEnvAsInt("DIGEST_HOUR", 18),

		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 2),
		TurnQueueURL:        getEnv("TURN_QUEUE_URL", ""),
		ProcessedTable:      getEnv("PROCESSED_MESSAGES_TABLE", "processed_messages"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ZapAgenda"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
