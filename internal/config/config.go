package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// S3Config holds object storage settings for avatar uploads.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible stores
}

// Config holds all runtime configuration for the user service.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// Session tokens
	JWTSecret  string
	SessionTTL time.Duration

	// Password lifecycle
	ResetTokenTTL time.Duration
	BcryptCost    int

	// Sign-in rate limiting (requests per window per client IP)
	SignInRateLimit  int
	SignInRateWindow time.Duration

	// Event publishing
	KafkaBrokers []string

	// Avatar storage
	S3 S3Config

	// Cookie settings for the session token
	CookieDomain string
	CookieSecure bool
}

// LoadConfig reads configuration from environment variables, loading a .env
// file first if one is present.
func LoadConfig() (*Config, error) {
	// Best-effort; environment variables win over .env
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SessionTTL:       getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		ResetTokenTTL:    getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		SignInRateLimit:  getEnvInt("SIGNIN_RATE_LIMIT", 100),
		SignInRateWindow: getEnvDuration("SIGNIN_RATE_WINDOW", 15*time.Minute),
		CookieDomain:     os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),
		S3: S3Config{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   getEnv("S3_REGION", "eu-central-1"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Environment == "production" && !cfg.CookieSecure {
		cfg.CookieSecure = true
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
