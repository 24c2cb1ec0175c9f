package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-ems/internal/events"
	"go-ems/internal/reconcile"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reconciler is the part of reconcile.Service the mirror consumer needs.
type Reconciler interface {
	SyncEmployee(ctx context.Context, email string) (reconcile.SyncResult, error)
}

// ConsumeMirrorLag repairs the admin view of every employee named in a
// mirror-lag event.
func ConsumeMirrorLag(
	ctx context.Context,
	reader MessageReader,
	reconciler Reconciler,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.mirror_lag")
	log.Info("mirror lag consumer started")

	consume(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		var event events.MirrorLagEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}
		if event.EmployeeEmail == "" {
			return fmt.Errorf("%w: missing employee_email", errUndecodable)
		}

		res, err := reconciler.SyncEmployee(ctx, event.EmployeeEmail)
		if err != nil {
			return err
		}

		log.Info("mirror lag reconciled",
			zap.String("employee_email", res.Email),
			zap.String("scope", event.Scope),
			zap.String("outcome", string(res.Outcome)),
		)
		return nil
	})
}
