package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-ems/internal/events"
	"go-ems/internal/reconcile"
	reconcileMock "go-ems/internal/reconcile/mock"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// fakeReader hands out msgs in order, then blocks until ctx is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.msgs) == 0 {
		r.mu.Unlock()
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.mu.Unlock()
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func newReader(msgs ...kafkago.Message) (*fakeReader, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	return &fakeReader{msgs: msgs, cancel: cancel}, ctx
}

func message(t *testing.T, offset int64, eventType string, v any) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return kafkago.Message{
		Offset: offset,
		Value:  body,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "request_id", Value: []byte("req-1")},
		},
	}
}

func TestConsumeMirrorLag(t *testing.T) {
	rec := reconcileMock.NewMockService(gomock.NewController(t))

	reader, ctx := newReader(
		message(t, 1, events.EventMirrorLag, events.MirrorLagEvent{EmployeeEmail: "alice@corp.com", Scope: events.MirrorScopeLeave}),
		kafkago.Message{Offset: 2, Value: []byte("not json")},
		message(t, 3, events.EventMirrorLag, events.MirrorLagEvent{EmployeeEmail: "bob@corp.com"}),
	)

	rec.EXPECT().SyncEmployee(gomock.Any(), "alice@corp.com").
		Return(reconcile.SyncResult{Email: "alice@corp.com", Outcome: reconcile.OutcomeRepaired}, nil)
	rec.EXPECT().SyncEmployee(gomock.Any(), "bob@corp.com").
		Return(reconcile.SyncResult{}, errors.New("mongo down"))

	ConsumeMirrorLag(ctx, reader, rec, zap.NewNop())

	// the failed sync stays uncommitted for redelivery
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

type recordingNotifier struct {
	reviewed  []events.LeaveReviewedEvent
	onboarded []events.EmployeeOnboardedEvent
	err       error
}

func (n *recordingNotifier) LeaveReviewed(_ context.Context, ev events.LeaveReviewedEvent) error {
	if n.err != nil {
		return n.err
	}
	n.reviewed = append(n.reviewed, ev)
	return nil
}

func (n *recordingNotifier) EmployeeOnboarded(_ context.Context, ev events.EmployeeOnboardedEvent) error {
	if n.err != nil {
		return n.err
	}
	n.onboarded = append(n.onboarded, ev)
	return nil
}

func TestConsumeLeaveLifecycle(t *testing.T) {
	notifier := &recordingNotifier{}
	reader, ctx := newReader(
		message(t, 1, events.EventLeaveReviewed, events.LeaveReviewedEvent{EmployeeEmail: "alice@corp.com", Status: "Accepted"}),
		message(t, 2, "something_else", map[string]string{"x": "y"}),
	)

	ConsumeLeaveLifecycle(ctx, reader, notifier, zap.NewNop())

	require.Len(t, notifier.reviewed, 1)
	assert.Equal(t, "Accepted", notifier.reviewed[0].Status)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestConsumeEmployeeLifecycle_NotifierFailureIsNotCommitted(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	reader, ctx := newReader(
		message(t, 7, events.EventEmployeeOnboarded, events.EmployeeOnboardedEvent{Email: "alice@corp.com"}),
	)

	ConsumeEmployeeLifecycle(ctx, reader, notifier, zap.NewNop())

	assert.Empty(t, reader.committed)
}
