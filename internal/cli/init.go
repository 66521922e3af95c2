// Package cli holds the start-up steps shared by the finmood binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finmood/internal/amqp"
	"finmood/internal/config"
	"finmood/internal/ledger/memory"
	"finmood/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at level and makes it the slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.NewText(os.Stdout, log.ParseLevel(level), log.ComponentApp)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitLedgerStore loads the seed file into a memory store, exiting on a
// malformed file.
func InitLedgerStore(logger *log.Logger, seedFile string) *memory.Store {
	store, err := memory.NewFromFile(seedFile)
	if err != nil {
		logger.Error("Failed to load seed transactions", "error", err, "path", seedFile)
		os.Exit(1)
	}
	logger.Info("Ledger initialized", "path", seedFile, "transactions", store.Len())
	return store
}

// InitAMQP connects to the broker. It returns nil when url is empty and
// exits when the broker cannot be reached.
func InitAMQP(logger *log.Logger, url, exchange string) *amqp.Client {
	if url == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(url, exchange)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "exchange", exchange)
		os.Exit(1)
	}
	logger.Info("AMQP client initialized", "exchange", exchange)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
