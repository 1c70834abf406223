package main

import (
	"context"
	"errors"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	memsheet "ledger/internal/sheets/memory"
	"ledger/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentExporter)
	logger.Info("Starting export-worker")

	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Export worker needs a broker", errors.New("AMQP_URL is not set"))
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	var exporter sheets.TransactionExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		exporter = client
		logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memsheet.New()
		logger.Info("Google Sheets disabled - exporting to memory only")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer consumer.Close()

	w := worker.NewExportWorker(be.Store, exporter)
	if err := consumer.ConsumeTransactionEvents(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}
	logger.Info("Export-worker shutdown complete")
}
