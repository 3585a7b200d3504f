// Package cli holds the ledger command tree and the initialization steps
// its commands share.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// LoadEnvFile loads .env files for local development. A missing default
// file is not an error; an explicitly named one is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// SetupLogger builds the stderr logger for level and makes it the default.
func SetupLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite opens the ledger database, applying migrations.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.WithComponent(log.ComponentStorage).Error("Failed to open ledger database", "error", err, "path", dbPath)
		return nil, err
	}
	return repo, nil
}

// InitPublisher connects to the broker when events are enabled. A broker
// that cannot be reached is logged and events are switched off.
func InitPublisher(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.EventsEnabled() {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	logger.WithComponent(log.ComponentAMQP).Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// NewService wires the ledger service. client may be nil.
func NewService(repo *storage.SQLiteRepository, client *amqp.Client, cfg *config.Config) *services.LedgerService {
	opts := services.Options{
		ListLimit:   cfg.ListLimit,
		PreviewRows: cfg.PreviewRows,
		ReportedIDs: cfg.ReportedIDs,
	}
	// A nil *amqp.Client must not become a non-nil interface value.
	var publisher services.EventPublisher
	if client != nil {
		publisher = client
	}
	return services.NewLedgerService(repo, publisher, opts)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
