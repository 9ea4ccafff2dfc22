// Package cli holds the homeportal command tree and the initialization steps
// shared by its commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"homeportal/internal/amqp"
	"homeportal/internal/config"
	applog "homeportal/internal/log"
	"homeportal/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logCfg.Output = os.Stderr

	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger, nil
}

// InitSQLite opens the database at dbPath and applies pending migrations.
func InitSQLite(logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository at %s: %w", dbPath, err)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo, nil
}

// InitAMQP connects to the broker. It returns nil without error when
// messaging is not configured.
func InitAMQP(logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.MessagingEnabled() {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP broker: %w", err)
	}
	logger.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			applog.FromContext(ctx).Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
