package main

import (
	"context"
	"os"
	"time"

	"donors/internal/amqp"
	"donors/internal/backend"
	"donors/internal/cli"
	"donors/internal/log"
	"donors/internal/services"
	"donors/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting donors-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ledger, err := backend.NewLedger(context.Background(), backend.FromAppConfig(cfg), logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	var consumer worker.Consumer
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		amqpClient = client
		consumer = client
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep", "interval", cfg.SyncInterval)
	}

	processor := services.NewLedgerSyncProcessor(repo, ledger, services.LedgerSyncConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
		MaxAttempts:  cfg.SyncMaxAttempts,
	})
	ledgerWorker := worker.NewLedgerWorker(processor, consumer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
	})

	if err := ledgerWorker.Run(ctx); err != nil {
		logger.Error("Ledger worker stopped with error", "error", err)
		repo.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
