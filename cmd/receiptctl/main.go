package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"receipts/internal/backend"
	"receipts/internal/cli"
	"receipts/internal/config"
	"receipts/internal/ledger"
	"receipts/internal/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	// Logs go to stderr so command output stays pipeable.
	logger := cli.SetupLogger(log.ComponentCLI, envOr("LOG_LEVEL", "warn"), os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).Validate)

	ctx := context.Background()
	stack, err := backend.Open(ctx, cfg, logger.Logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receiptctl: %v\n", err)
		return 1
	}
	defer func() {
		if err := stack.Service.Close(); err != nil {
			logger.Warn("Failed to close receipt service", "error", err)
		}
	}()

	err = cli.NewRunner(stack.Service).Run(ctx, os.Args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrAborted):
		fmt.Fprintln(os.Stderr, "Aborted.")
		return 1
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, err)
		return 2
	case errors.Is(err, ledger.ErrReceiptNotFound):
		fmt.Fprintf(os.Stderr, "receiptctl: %v\n", err)
		return 3
	default:
		fmt.Fprintf(os.Stderr, "receiptctl: %v\n", err)
		return 1
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
