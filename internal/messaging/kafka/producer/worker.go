package producer

import (
	"context"
	"time"

	"go-ems/internal/messaging/kafka"

	"go.uber.org/zap"
)

const (
	batchSize = 50
	// maxBatchesPerTick caps draining so a large backlog cannot starve the
	// shutdown check.
	maxBatchesPerTick = 10
)

// ProcessOutboxEvents relays due outbox events to Kafka until ctx is done.
// It drains immediately on start, then on every tick. Events that are not
// due yet (next_retry_at in the future) are left to a later tick.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))
	drain(ctx, repo, writer, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			drain(ctx, repo, writer, log)
		}
	}
}

// drain keeps pulling batches while they come back full.
func drain(ctx context.Context, repo kafka.OutboxRepository, writer MessageWriter, log *zap.Logger) {
	for i := 0; i < maxBatchesPerTick && ctx.Err() == nil; i++ {
		n, err := processPendingEvents(ctx, repo, writer, log)
		if err != nil {
			log.Error("process outbox events failed", zap.Error(err))
			return
		}
		if n < batchSize {
			return
		}
	}
}

// processPendingEvents publishes one batch and returns its size.
func processPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
) (int, error) {
	events, err := repo.ListPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	logger.Debug("processing pending outbox events", zap.Int("count", len(events)))

	sent := 0
	for _, event := range events {
		if err := publishEvent(ctx, writer, event); err != nil {
			markFailed(ctx, repo, logger, event, err)
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			// published but still pending: consumers see it twice at most
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	logger.Info("outbox batch relayed",
		zap.Int("count", len(events)),
		zap.Int("sent", sent),
		zap.Int("failed", len(events)-sent),
	)
	return len(events), nil
}

func markFailed(ctx context.Context, repo kafka.OutboxRepository, logger *zap.Logger, event kafka.OutboxEvent, cause error) {
	fields := []zap.Field{
		zap.String("outbox_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("topic", event.Topic),
		zap.Int("attempt", event.RetryCount+1),
		zap.Error(cause),
	}
	if kafka.IsLastAttempt(event) {
		logger.Error("outbox event dead after last attempt", fields...)
	} else {
		logger.Warn("publish outbox event failed",
			append(fields, zap.Duration("next_retry_in", kafka.NextRetryDelay(event.RetryCount)))...)
	}

	if err := repo.MarkFailed(ctx, event, cause.Error()); err != nil {
		logger.Error("mark outbox failed failed", zap.String("outbox_id", event.ID), zap.Error(err))
	}
}
