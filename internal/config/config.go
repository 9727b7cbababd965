package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppEnv string

	// Telegram
	TelegramAPIKey  string
	TelegramAPIURL  string
	PollTimeout     time.Duration // Long-poll hold per getUpdates call
	RetryDelay      time.Duration // Fixed delay before retrying a failed poll
	EventBuffer     int
	SendRPS         float64
	SendBurst       int
	TagPromptText   string
	InlineCacheTime time.Duration

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN string

	// Archive storage (S3-compatible, optional: disabled when S3Bucket is empty)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv: envString("APP_ENV", "development"),

		// Telegram
		TelegramAPIKey:  envRequired("MEHU_TELEGRAM_APIKEY"),
		TelegramAPIURL:  envString("TELEGRAM_API_URL", "https://api.telegram.org"),
		PollTimeout:     envDuration("TELEGRAM_POLL_TIMEOUT", 60*time.Second),
		RetryDelay:      envDuration("TELEGRAM_RETRY_DELAY", 1*time.Second),
		EventBuffer:     envInt("TELEGRAM_EVENT_BUFFER", 100),
		SendRPS:         envFloat("TELEGRAM_SEND_RPS", 30),
		SendBurst:       envInt("TELEGRAM_SEND_BURST", 30),
		TagPromptText:   envString("TAG_PROMPT_TEXT", "How should this be tagged?"),
		InlineCacheTime: envDuration("INLINE_CACHE_TIME", 0),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/mehu.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Archive
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
	}

	return cfg
}

// LoadDatabase reads only the database settings, for commands that never talk to Telegram.
func LoadDatabase() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return &Config{
		AppEnv:       envString("APP_ENV", "development"),
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/mehu.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		SentryDSN:    envString("SENTRY_DSN", ""),
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ArchiveEnabled reports whether media should be mirrored to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}
