package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetly/internal/cli"
	apphttp "budgetly/internal/http"
	"budgetly/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	// Bootstrap logger until the configured one is available.
	logger := cli.SetupLogger(nil, os.Stdout)
	cfg := cli.MustLoadConfig(logger.Logger, os.Getenv("CONFIG_FILE"))
	logger = cli.SetupLogger(cfg, os.Stdout)

	ctx, cancel := cli.SignalContext(context.Background(), logger.Logger)
	defer cancel()

	pub := cli.NewPublisher(logger.Logger, cfg)
	store, cleanup, err := cli.OpenLedger(ctx, logger.Logger, cfg, pub)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	srv := apphttp.NewServer(":"+cfg.Port, store,
		apphttp.WithCurrencySymbol(cfg.CurrencySymbol),
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetly server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		cleanup()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
