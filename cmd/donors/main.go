package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"donors/internal/amqp"
	"donors/internal/cli"
	apphttp "donors/internal/http"
	"donors/internal/log"
	"donors/internal/payments"
	"donors/internal/payments/httpgateway"
	"donors/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Donation events are optional; without a broker the worker's sweep
	// still exports every donation.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		amqpClient = client
		publisher = client
		logger.Info("AMQP publisher enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	donors := services.NewDonorService(repo)
	donations := services.NewDonationService(repo, publisher)

	var charger payments.Charger
	if cfg.GatewayConfigured() {
		charger = httpgateway.New(cfg.GatewayURL, cfg.GatewayTimeout)
		logger.Info("Payment gateway configured", "url", cfg.GatewayURL)
	} else {
		logger.Info("Payment gateway not configured - POST /charges will answer 503")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Donors:    donors,
		Donations: donations,
		Campaigns: services.NewCampaignService(repo),
		Reports:   services.NewReportService(repo),
		Charges:   payments.NewAdapter(charger, donations, donors),
		Store:     repo,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		GatewayCredential:  cfg.GatewayCredential,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
	})

	logger.Info("Starting donors server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
