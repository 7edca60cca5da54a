package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Realtime backends
const (
	RealtimeMemory = "memory"
	RealtimeRedis  = "redis"
)

// Config holds the service configuration read from the environment
type Config struct {
	Port          string
	DatabaseURL   string
	DBAutoMigrate bool

	RedisURL        string
	RealtimeBackend string

	KafkaBrokers []string
	KafkaTopic   string

	MongoURI      string
	MongoDatabase string

	ShopifyAPIKey      string
	ShopifyAPISecret   string
	ShopifyAPIVersion  string
	ShopifyCallTimeout time.Duration
	ShopifyRateLimit   float64
	ShopifyRetries     int

	WebhookProcessTimeout time.Duration
	WebhookDedupTTL       time.Duration
	WebhookMaxBodyBytes   int64

	JWTSecret     string
	JWTExpiration time.Duration
	EncryptionKey string

	CORSOrigins []string
	LogLevel    zerolog.Level
}

// LoadDotenv loads .env when present
func LoadDotenv(logger zerolog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: .env file not found")
	}
}

// Load reads the configuration; all validation errors are returned together
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RealtimeBackend:   strings.ToLower(getenv("REALTIME_BACKEND", RealtimeMemory)),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getenv("KAFKA_TOPIC", "tenant-events"),
		MongoURI:          os.Getenv("MONGODB_URI"),
		MongoDatabase:     getenv("MONGODB_DATABASE", "shopify_insights"),
		ShopifyAPIKey:     os.Getenv("SHOPIFY_API_KEY"),
		ShopifyAPISecret:  os.Getenv("SHOPIFY_API_SECRET"),
		ShopifyAPIVersion: getenv("SHOPIFY_API_VERSION", "2024-10"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		CORSOrigins:       splitCSV(getenv("CORS_ORIGINS", "*")),
	}

	cfg.DBAutoMigrate = parseBool("DB_AUTO_MIGRATE", true, &errs)
	cfg.ShopifyCallTimeout = parseDuration("SHOPIFY_CALL_TIMEOUT", 15*time.Second, &errs)
	cfg.ShopifyRateLimit = parseFloat("SHOPIFY_RATE_LIMIT", 2, &errs)
	cfg.ShopifyRetries = parseInt("SHOPIFY_RETRIES", 3, &errs)
	cfg.WebhookProcessTimeout = parseDuration("WEBHOOK_PROCESS_TIMEOUT", 4*time.Second, &errs)
	cfg.WebhookDedupTTL = parseDuration("WEBHOOK_DEDUP_TTL", 48*time.Hour, &errs)
	cfg.WebhookMaxBodyBytes = int64(parseInt("WEBHOOK_MAX_BODY_BYTES", 1<<20, &errs))
	cfg.JWTExpiration = parseDuration("JWT_EXPIRATION", 24*time.Hour, &errs)

	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		level = zerolog.InfoLevel
	}
	cfg.LogLevel = level

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.ShopifyAPISecret == "" {
		errs = append(errs, errors.New("SHOPIFY_API_SECRET is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if cfg.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required"))
	}
	switch cfg.RealtimeBackend {
	case RealtimeMemory:
	case RealtimeRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when REALTIME_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("REALTIME_BACKEND must be %q or %q", RealtimeMemory, RealtimeRedis))
	}
	if cfg.ShopifyRateLimit <= 0 {
		errs = append(errs, errors.New("SHOPIFY_RATE_LIMIT must be positive"))
	}
	if cfg.ShopifyCallTimeout <= 0 {
		errs = append(errs, errors.New("SHOPIFY_CALL_TIMEOUT must be positive"))
	}
	if cfg.WebhookProcessTimeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_PROCESS_TIMEOUT must be positive"))
	}
	if cfg.WebhookMaxBodyBytes <= 0 {
		errs = append(errs, errors.New("WEBHOOK_MAX_BODY_BYTES must be positive"))
	}
	if cfg.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseDuration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", k, v))
		return def
	}
	return d
}

func parseBool(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", k, v))
		return def
	}
	return b
}

func parseInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", k, v))
		return def
	}
	return n
}

func parseFloat(k string, def float64, errs *[]error) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", k, v))
		return def
	}
	return f
}
