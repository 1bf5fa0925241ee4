package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-schoolops/internal/bootstrap"
	"go-schoolops/internal/config"
	"go-schoolops/internal/messaging/kafka"
	"go-schoolops/internal/messaging/kafka/producer"
	"go-schoolops/internal/scheduler"
	"go-schoolops/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to kafka and runs the monthly invoice batch.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	if err := cfg.RequireKafka(); err != nil {
		return err
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DB.MaxRetries)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.DB.MaxRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	svc, err := buildServices(cfg, gormDB, redisClient, nil, logger)
	if err != nil {
		return err
	}

	outboxRepo := kafka.NewOutboxRepository(gormDB)
	invoiceBatch := scheduler.NewInvoiceBatch(scheduler.InvoiceBatchConfig{
		Invoices:   svc.invoice,
		Rosters:    svc.posting,
		Redis:      redisClient,
		Audit:      bootstrap.NewStdoutAuditLogger(),
		BillingDay: cfg.Billing.BillingDay,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		cfg.OutboxPollInterval,
	)
	go invoiceBatch.Run(ctx, cfg.Billing.CheckInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
