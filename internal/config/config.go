package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Persistence
	DataDir        string
	DataFile       string
	StoreURL       string // remote store endpoint (GET/PUT /api/store)
	UseRemoteStore bool

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// Daily reminder
	ReminderHour       int    // hour after which the no-entry check fires
	ReminderWebhookURL string // optional; reminders are logged either way

	// PIN gate (lock-screen glue, not a security boundary)
	PinBcryptHash string
	SessionSecret string
	SessionTTL    time.Duration // idle-lock window
	ThrottleTTL   time.Duration // failed-attempt cooldown
}

// DataPath returns the full path of the persisted store document.
func (c *Config) DataPath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:        getEnv("DATA_DIR", "data"),
		DataFile:       getEnv("DATA_FILE", "store.json"),
		StoreURL:       getEnv("STORE_URL", ""),
		UseRemoteStore: getEnv("USE_REMOTE_STORE", "false") == "true",

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		ReminderHour:       getEnvInt("REMINDER_HOUR", 22),
		ReminderWebhookURL: getEnv("REMINDER_WEBHOOK_URL", ""),

		PinBcryptHash: getEnv("PIN_BCRYPT_HASH", ""),
		SessionSecret: getEnv("SESSION_SECRET", "duwit-default-dev-secret-change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 10*time.Minute),
		ThrottleTTL:   getEnvDuration("THROTTLE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
