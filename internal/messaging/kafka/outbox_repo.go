package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-ems/internal/shared/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	// OutboxStatusDead marks events that used up MaxDeliveryAttempts. They
	// stay in the collection for inspection and are never polled again.
	OutboxStatusDead = "dead"
)

// MaxDeliveryAttempts bounds publishing of one event. A mirror-lag event that
// never gets through is still covered by the periodic reconcile sweep.
const MaxDeliveryAttempts = 20

const (
	maxErrorLength   = 500
	retryStep        = 15 * time.Second
	maxRetryMultiple = 10
)

type OutboxEvent struct {
	ID            string     `bson:"_id"`
	RequestID     string     `bson:"request_id,omitempty"`
	AggregateType string     `bson:"aggregate_type"`
	AggregateID   string     `bson:"aggregate_id"`
	EventType     string     `bson:"event_type"`
	Topic         string     `bson:"topic"`
	Payload       []byte     `bson:"payload"`
	Status        string     `bson:"status"`
	RetryCount    int        `bson:"retry_count"`
	NextRetryAt   time.Time  `bson:"next_retry_at"`
	ErrorMessage  string     `bson:"error_message,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	ProcessedAt   *time.Time `bson:"processed_at,omitempty"`
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, event OutboxEvent, reason string) error
}

type outboxRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &outboxRepository{coll: db.Collection(docstore.CollectionOutbox), now: time.Now}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	now := r.now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.NextRetryAt.IsZero() {
		event.NextRetryAt = event.CreatedAt
	}
	event.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, event)
	return docstore.MapError(err)
}

// ListPending returns pending and failed events whose retry time has come,
// oldest first.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	filter := bson.M{
		"status":        bson.M{"$in": []string{OutboxStatusPending, OutboxStatusFailed}},
		"next_retry_at": bson.M{"$lte": r.now().UTC()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := make([]OutboxEvent, 0, limit)
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	now := r.now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"status": OutboxStatusSent, "processed_at": now, "updated_at": now},
			"$unset": bson.M{"error_message": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// MarkFailed schedules the next attempt with a linear backoff of
// min(retry+1, 10) x 15s, or moves the event to dead after the last attempt.
func (r *outboxRepository) MarkFailed(ctx context.Context, event OutboxEvent, reason string) error {
	if len(reason) > maxErrorLength {
		reason = reason[:maxErrorLength]
	}
	now := r.now().UTC()
	set := bson.M{
		"status":        OutboxStatusFailed,
		"error_message": reason,
		"next_retry_at": now.Add(NextRetryDelay(event.RetryCount)),
		"updated_at":    now,
	}
	if IsLastAttempt(event) {
		set["status"] = OutboxStatusDead
		set["processed_at"] = now
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": event.ID},
		bson.M{"$set": set, "$inc": bson.M{"retry_count": 1}},
	)
	return err
}

// IsLastAttempt reports whether a failure of event exhausts its attempts.
func IsLastAttempt(event OutboxEvent) bool {
	return event.RetryCount+1 >= MaxDeliveryAttempts
}

func NextRetryDelay(retryCount int) time.Duration {
	multiple := retryCount + 1
	if multiple > maxRetryMultiple {
		multiple = maxRetryMultiple
	}
	return time.Duration(multiple) * retryStep
}

func ValidateOutboxEvent(event OutboxEvent) error {
	if event.ID == "" {
		return errors.New("outbox id is required")
	}
	if event.Topic == "" {
		return errors.New("outbox topic is required")
	}
	if len(event.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", event.Status)
	}
}
