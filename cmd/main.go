package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/harshpatel5940/stripevigil/internal/config"
	"github.com/harshpatel5940/stripevigil/internal/database"
	"github.com/harshpatel5940/stripevigil/internal/publisher"
	"github.com/harshpatel5940/stripevigil/internal/server"
	"github.com/harshpatel5940/stripevigil/internal/webhook"
	"github.com/rs/zerolog"
)

func main() {
	// Setup logger
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Caller().
		Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "sign" {
		if err := runSign(cfg, os.Args[2:]); err != nil {
			logger.Fatal().Err(err).Msg("failed to sign payload")
		}
		return
	}

	logger.Info().
		Str("port", cfg.Port).
		Bool("persistence", cfg.DatabaseURL != "").
		Bool("fanout", cfg.RedisAddr != "").
		Msg("configuration loaded")

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Connect to database (optional - events are not stored without it)
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		logger.Info().Msg("connected to database")

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		logger.Info().Msg("migrations completed")
	} else {
		logger.Warn().Msg("no DATABASE_URL configured - events will not be stored")
	}

	// Connect to redis (optional - events are not fanned out without it)
	var pub webhook.Publisher
	if cfg.RedisAddr != "" {
		rp, err := publisher.NewRedisPublisher(ctx, publisher.RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			MaxLen:   cfg.RedisStreamMaxLen,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rp.Close()
		pub = rp
		logger.Info().Str("stream", cfg.RedisStream).Msg("publishing events to redis stream")
	}

	// Create and start server
	srv := server.New(cfg, db, pub, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("server stopped gracefully")
}

// runSign prints a Stripe-Signature header for a payload file, for replaying
// events against a local receiver. Usage: sign <file> [timestamp]
func runSign(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sign <file> [timestamp]")
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	if len(args) > 1 {
		timestamp = args[1]
	}

	fmt.Println(webhook.BuildSignatureHeader([]byte(cfg.WebhookSecret), timestamp, payload))
	return nil
}
