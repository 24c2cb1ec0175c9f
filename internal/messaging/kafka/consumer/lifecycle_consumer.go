package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-ems/internal/events"
	"go-ems/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeLeaveLifecycle mails the employee when a leave is reviewed.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	consume(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		if et := header(msg, "event_type"); et != "" && et != events.EventLeaveReviewed {
			return nil
		}

		var event events.LeaveReviewedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}

		if err := notifier.LeaveReviewed(ctx, event); err != nil {
			return err
		}
		log.Info("leave review notified",
			zap.String("employee_email", event.EmployeeEmail),
			zap.String("leave_id", event.LeaveID),
			zap.String("status", event.Status),
		)
		return nil
	})
}

// ConsumeEmployeeLifecycle sends the welcome mail after onboarding.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	consume(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		if et := header(msg, "event_type"); et != "" && et != events.EventEmployeeOnboarded {
			return nil
		}

		var event events.EmployeeOnboardedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}

		if err := notifier.EmployeeOnboarded(ctx, event); err != nil {
			return err
		}
		log.Info("welcome mail sent", zap.String("email", event.Email))
		return nil
	})
}
