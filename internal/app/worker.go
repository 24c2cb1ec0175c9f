package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/messaging/kafka/producer"
	"go-ems/internal/reconcile"
	"go-ems/internal/shared/connection"
	"go-ems/internal/shared/docstore"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and sweeps the admin view on a timer.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	mongoClient, mongoDB, err := connection.ConnectMongoWithRetry(cfg.MongoURI, cfg.MongoDBName, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(mongoDB)
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reconcileService := reconcile.NewService(
		employee.NewRepository(mongoDB, docstore.CollectionEmployee),
		employee.NewRepository(mongoDB, docstore.CollectionAdmin),
		reconcile.WithLogger(logger),
		reconcile.WithCache(rdb),
		reconcile.WithLegacyMigrators(
			leave.NewLegacyMigrator(mongoDB, docstore.CollectionEmployee),
			leave.NewLegacyMigrator(mongoDB, docstore.CollectionAdmin),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		cfg.OutboxPollInterval,
	)
	go runReconcileSweeps(ctx, reconcileService, cfg.ReconcileInterval, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

func runReconcileSweeps(ctx context.Context, svc reconcile.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("periodic reconcile disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("reconcile ticker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Sweep(ctx); err != nil {
				logger.Error("reconcile sweep failed", zap.Error(err))
			}
		}
	}
}
