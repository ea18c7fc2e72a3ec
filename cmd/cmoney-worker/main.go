package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"cmoney/internal/amqp"
	"cmoney/internal/backend"
	"cmoney/internal/cli"
	applog "cmoney/internal/log"
	gsheet "cmoney/internal/sheets/google"
	"cmoney/internal/worker"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	}()
	if result.AMQP == nil {
		logger.Error("AMQP broker unreachable, nothing to consume", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	journal := worker.NewJournalWorker(result.Repository, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming transaction events", "batch_size", cfg.SyncBatchSize)
		return result.AMQP.ConsumeTransactionEventBatches(gctx, amqp.BatchOptions{Size: cfg.SyncBatchSize}, journal.HandleBatch)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	if ctx.Err() != nil {
		<-done
	}
	logger.Info("Worker stopped gracefully")
}
