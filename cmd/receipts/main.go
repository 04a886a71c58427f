package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"receipts/internal/backend"
	"receipts/internal/blob"
	"receipts/internal/cli"
	"receipts/internal/config"
	apphttp "receipts/internal/http"
	"receipts/internal/log"
	"receipts/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).Validate)

	stack, err := backend.Open(context.Background(), cfg, logger.Logger, true)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := apphttp.Options{
		Logger: logger,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	}
	if p, ok := stack.Backend.Store.(blob.Pinger); ok {
		opts.Pinger = p
	}
	srv := apphttp.NewServer(":"+cfg.Port, stack.Service, opts)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := stack.Service.Close(); err != nil {
			logger.Error("Failed to close receipt service", "error", err)
		}
	})

	logger.Info("Starting receipts server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = stack.Service.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
