// Package cli provides common CLI initialization utilities shared by
// cmd/ledger and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	lvl, err := log.ParseLevel(level)
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitDatabase opens and migrates the database named by connection. The
// failure is logged before it is returned.
func InitDatabase(ctx context.Context, logger *log.Logger, connection string) (*storage.DB, error) {
	db, err := storage.Open(ctx, connection, logger)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, log.FieldConnection, connection)
		return nil, err
	}
	return db, nil
}

// InitAMQP connects to the broker when AMQP is configured and returns a nil
// client otherwise. The failure is logged before it is returned.
func InitAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP not configured, change events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return nil, err
	}
	return client, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
