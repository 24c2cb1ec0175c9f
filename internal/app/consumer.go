package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka/consumer"
	"go-ems/internal/notification"
	"go-ems/internal/reconcile"
	"go-ems/internal/shared/connection"
	"go-ems/internal/shared/docstore"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer repairs the admin view on mirror-lag events and sends the
// lifecycle e-mails.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	mongoClient, mongoDB, err := connection.ConnectMongoWithRetry(cfg.MongoURI, cfg.MongoDBName, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

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
	notifier := notification.NewNotifier(notification.MailConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUser,
		Password: cfg.MailPass,
		From:     cfg.MailFrom,
	}, logger)

	newReader := func(topic, group string) *kafkago.Reader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        []string{cfg.KafkaBroker},
			Topic:          topic,
			GroupID:        cfg.KafkaGroupID + "-" + group,
			CommitInterval: 0,
			StartOffset:    kafkago.FirstOffset,
		})
	}

	mirrorReader := newReader(events.MirrorLagTopic, "reconcile")
	defer mirrorReader.Close()
	leaveReader := newReader(events.LeaveLifecycleTopic, "notify")
	defer leaveReader.Close()
	employeeReader := newReader(events.EmployeeLifecycleTopic, "notify")
	defer employeeReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		consumer.ConsumeMirrorLag(ctx, mirrorReader, reconcileService, logger)
	}()
	go func() {
		defer wg.Done()
		consumer.ConsumeLeaveLifecycle(ctx, leaveReader, notifier, logger)
	}()
	go func() {
		defer wg.Done()
		consumer.ConsumeEmployeeLifecycle(ctx, employeeReader, notifier, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	wg.Wait()

	return nil
}
