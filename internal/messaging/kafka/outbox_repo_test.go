package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// updateSet returns the $set document of the last update command.
func updateSet(mt *mtest.T) bson.Raw {
	mt.Helper()
	started := mt.GetStartedEvent()
	require.NotNil(mt, started)
	require.Equal(mt, "update", started.CommandName)
	updates, ok := started.Command.Lookup("updates").ArrayOK()
	require.True(mt, ok)
	return updates.Index(0).Value().Document().Lookup("u", "$set").Document()
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("schedules a retry with backoff", func(mt *mtest.T) {
		repo := &outboxRepository{coll: mt.Coll, now: func() time.Time { return fixedNow }}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.MarkFailed(ctx, OutboxEvent{ID: "ev-1", RetryCount: 2}, "broker unavailable"))

		set := updateSet(mt)
		assert.Equal(mt, OutboxStatusFailed, set.Lookup("status").StringValue())
		assert.Equal(mt, "broker unavailable", set.Lookup("error_message").StringValue())
		assert.Equal(mt, fixedNow.Add(45*time.Second), set.Lookup("next_retry_at").Time().UTC())
	})

	mt.Run("last attempt moves the event to dead", func(mt *mtest.T) {
		repo := &outboxRepository{coll: mt.Coll, now: func() time.Time { return fixedNow }}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.MarkFailed(ctx, OutboxEvent{ID: "ev-2", RetryCount: MaxDeliveryAttempts - 1}, "broker unavailable"))

		set := updateSet(mt)
		assert.Equal(mt, OutboxStatusDead, set.Lookup("status").StringValue())
		assert.Equal(mt, fixedNow, set.Lookup("processed_at").Time().UTC())
	})
}

func TestNextRetryDelay(t *testing.T) {
	assert.Equal(t, 15*time.Second, NextRetryDelay(0))
	assert.Equal(t, 60*time.Second, NextRetryDelay(3))
	assert.Equal(t, 150*time.Second, NextRetryDelay(42))
}

func TestIsLastAttempt(t *testing.T) {
	assert.False(t, IsLastAttempt(OutboxEvent{RetryCount: 0}))
	assert.False(t, IsLastAttempt(OutboxEvent{RetryCount: MaxDeliveryAttempts - 2}))
	assert.True(t, IsLastAttempt(OutboxEvent{RetryCount: MaxDeliveryAttempts - 1}))
}
