package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes matches the largest payload Stripe delivers.
const DefaultMaxBodyBytes = 64 * 1024

type Config struct {
	// Server
	Port         string
	MaxBodyBytes int64

	// Stripe
	WebhookSecret string

	// Database (optional)
	DatabaseURL string

	// Redis stream fan-out (optional)
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int64

	LogLevel zerolog.Level
}

func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisStream:       getEnv("REDIS_STREAM", "stripe-events"),
		RedisStreamMaxLen: int64(getEnvInt("REDIS_STREAM_MAXLEN", 0)),
	}

	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES: must be positive")
	}

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
