// Package cli provides common initialization for cmd/budgetly and
// cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetly/internal/backend"
	"budgetly/internal/clock"
	"budgetly/internal/config"
	"budgetly/internal/events"
	"budgetly/internal/ids"
	"budgetly/internal/ledger"
	"budgetly/internal/log"
)

// SetupLogger builds the process logger from cfg (defaults when nil), writes
// to out and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	if cfg == nil {
		cfg = config.Defaults()
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, overlaying the YAML file at path
// when non-empty, and validates it.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig that exits the process on failure.
func MustLoadConfig(logger *slog.Logger, path string) *config.Config {
	cfg, err := LoadAndValidateConfig(path)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewPublisher connects the ledger event publisher when AMQP is configured.
// A nil publisher means events are disabled; connection failures are logged
// and do not stop the process.
func NewPublisher(logger *slog.Logger, cfg *config.Config) *events.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey,
		logger.With(log.FieldComponent, log.ComponentEvents))
	if err != nil {
		logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP publisher",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)
	return pub
}

// OpenLedger opens the configured storage backend and loads the ledger from
// it. The returned cleanup closes the backend and the notifier, if any.
func OpenLedger(ctx context.Context, logger *slog.Logger, cfg *config.Config, pub *events.Publisher) (*ledger.Store, func(), error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}

	gen, err := ids.New(cfg.IDScheme)
	if err != nil {
		_ = res.Close()
		return nil, nil, err
	}

	opts := []ledger.Option{
		ledger.WithClock(clock.System{}),
		ledger.WithIDGenerator(gen),
		ledger.WithLogger(logger.With(log.FieldComponent, log.ComponentLedger)),
	}
	if pub != nil {
		opts = append(opts, ledger.WithNotifier(pub))
	}
	store := ledger.Open(ctx, res.Slot, opts...)

	cleanup := func() {
		if pub != nil {
			if err := pub.Close(); err != nil {
				logger.Warn("Failed to close AMQP publisher", "error", err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close storage backend", "error", err, log.FieldBackend, backendCfg.Type)
		}
	}
	return store, cleanup, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
