package main

import (
	"context"
	"errors"
	"os"
	"time"

	"contas/internal/amqp"
	"contas/internal/cli"
	"contas/internal/config"
	applog "contas/internal/log"
	"contas/internal/sheets/google"
	"contas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting sheets-worker")

	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error { return c.ValidateWorker(true) })

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	credsFile := cfg.GoogleServiceAccountFile
	if credsFile == "" {
		credsFile = cfg.GoogleApplicationCredsFile
	}
	exporter, err := google.NewExporter(ctx, google.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: credsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", applog.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(res.Store, exporter, worker.Config{
		Interval:  cfg.ExportInterval,
		BatchSize: cfg.ExportBatchSize,
	})
	if err := exportWorker.Start(ctx); err != nil {
		logger.Error("Failed to start export worker", applog.FieldError, err)
		os.Exit(1)
	}

	// The consumer has its own connection; the backend's client only publishes.
	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, relying on the periodic sweep", applog.FieldError, err)
	} else {
		defer consumer.Close()
		go func() {
			err := consumer.ConsumeSnapshots(ctx, exportWorker.HandleSnapshotMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
				cancel()
			}
		}()
	}

	<-ctx.Done()

	logger.Info("Shutting down sheets-worker...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := exportWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("Export worker stop failed", applog.FieldError, err)
	}
	logger.Info("Sheets-worker shutdown complete")
}
