package main

import (
	"context"
	"errors"
	"os"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/proxy"
	"ledger/internal/repository"
	"ledger/internal/services"
	"ledger/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		return 1
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	db, err := cli.InitDatabase(ctx, logger, cfg.DBConnection)
	if err != nil {
		return 1
	}
	defer db.Close()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		return 1
	}
	defer amqpClient.Close()

	exporterConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to build exporter config", log.FieldError, err)
		return 1
	}
	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, exporterConfig)
	if err != nil {
		logger.Error("Failed to create exporter", log.FieldError, err, "type", exporterConfig.Type)
		return 1
	}

	ledger := services.NewLedgerService(repository.New(proxy.New(db, proxy.WithLogger(logger))),
		services.WithLogger(logger))
	exportWorker := worker.NewExportWorker(ledger, exporter, logger)

	if cfg.ExportBackfill {
		logger.Info("Performing startup backfill...")
		if err := exportWorker.Backfill(ctx); err != nil {
			// Keep consuming; redelivered changes fill the gaps.
			logger.Error("Startup backfill failed", log.FieldError, err)
		}
	}

	if err := amqpClient.ConsumeChanges(ctx, exportWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return 1
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
	return 0
}
