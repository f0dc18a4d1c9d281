package main

import (
	"context"
	"net/http"
	"os"
	"time"

	amqpclient "paghetta/internal/amqp"
	"paghetta/internal/auth"
	"paghetta/internal/cli"
	apphttp "paghetta/internal/http"
	"paghetta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The spreadsheet mirror is optional; without AMQP the ledger runs
	// standalone and every write stays local.
	var publisher services.RecordPublisher
	var amqpClient *amqpclient.Client
	if cfg.MirrorEnabled() {
		var err error
		amqpClient, err = amqpclient.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Record mirror enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Record mirror disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(repo, publisher)
	settler := services.NewAllowanceProcessor(repo, publisher, cfg.AccrualWeekday)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, repo, ledger, settler, tokens)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting paghetta server", "port", cfg.Port, "accrual_weekday", cfg.AccrualWeekday.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
