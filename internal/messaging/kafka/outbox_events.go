package kafka

import (
	"context"
	"encoding/json"
	"time"

	"go-ems/internal/events"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
)

const (
	AggregateEmployee = "employee"
	AggregateLeave    = "leave"
)

// NewOutboxEvent builds a pending event keyed by aggregateID. The request id
// is taken from ctx when present.
func NewOutboxEvent(ctx context.Context, aggregateType, aggregateID, eventType, topic string, payload any) (OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, err
	}
	return OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       body,
		Status:        OutboxStatusPending,
	}, nil
}

// NewMirrorLagEvent records that the admin view of email fell behind.
func NewMirrorLagEvent(ctx context.Context, email, scope, ref, operation string, cause error) (OutboxEvent, error) {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return NewOutboxEvent(ctx, AggregateEmployee, email, events.EventMirrorLag, events.MirrorLagTopic, events.MirrorLagEvent{
		EventType:     events.EventMirrorLag,
		EmployeeEmail: email,
		Scope:         scope,
		Ref:           ref,
		Operation:     operation,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})
}
