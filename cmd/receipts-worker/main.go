package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"receipts/internal/adapters"
	"receipts/internal/amqp"
	"receipts/internal/backend"
	"receipts/internal/cli"
	"receipts/internal/config"
	"receipts/internal/log"
	gsheet "receipts/internal/sheets/google"
	"receipts/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting receipts-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).ValidateWorker)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateStore(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	defer res.Close()

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reader := adapters.NewBlobLedgerReader(res.Store, cfg.LedgerKey)
	wcfg := worker.Config{
		ResyncInterval: cfg.SyncInterval,
		Logger:         logger.Logger,
	}
	if locker, ok := reader.Locker(); ok {
		wcfg.Locker = locker
	}
	mirrorWorker := worker.NewMirrorWorker(reader, sheetsClient, wcfg)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := mirrorWorker.Stop(ctx); err != nil {
			logger.Error("Failed to stop mirror worker", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirrorWorker.Start(gctx)
	})
	g.Go(func() error {
		err := amqpClient.ConsumeLedgerEvents(gctx, mirrorWorker.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		_ = mirrorWorker.Stop(context.Background())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
