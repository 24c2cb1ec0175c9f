package leave_test

import (
	"context"
	"sync"

	"go-ems/internal/leave"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/shared/docstore"
)

// fakeStore mirrors the conditional semantics of the Mongo repository.
type fakeStore struct {
	mu         sync.Mutex
	docs       map[string][]leave.LeaveRecord
	failAppend error
	failUpsert error
	// conflictOnce makes the next ReplaceOne report a conflict without writing.
	conflictOnce bool
	appendCalls  int
}

func newFakeStore(keys ...string) *fakeStore {
	s := &fakeStore{docs: map[string][]leave.LeaveRecord{}}
	for _, k := range keys {
		s.docs[k] = []leave.LeaveRecord{}
	}
	return s
}

func (s *fakeStore) Append(_ context.Context, key string, rec leave.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls++
	if s.failAppend != nil {
		return s.failAppend
	}
	records, ok := s.docs[key]
	if !ok {
		return docstore.ErrNotFound
	}
	for _, r := range records {
		if r.LeaveID == rec.LeaveID {
			return docstore.ErrConflict
		}
	}
	s.docs[key] = append(records, rec)
	return nil
}

func (s *fakeStore) FetchAll(_ context.Context, key string) ([]leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.docs[key]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return append([]leave.LeaveRecord{}, records...), nil
}

func (s *fakeStore) FindOne(_ context.Context, key, leaveID string) (leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.docs[key] {
		if r.LeaveID == leaveID {
			return r, nil
		}
	}
	return leave.LeaveRecord{}, docstore.ErrNotFound
}

func (s *fakeStore) ReplaceOne(_ context.Context, key string, prior, updated leave.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictOnce {
		s.conflictOnce = false
		return docstore.ErrConflict
	}
	records := s.docs[key]
	for i, r := range records {
		if r.LeaveID == prior.LeaveID && r.Version == prior.Version {
			records[i] = updated
			return nil
		}
	}
	return docstore.ErrConflict
}

func (s *fakeStore) Upsert(_ context.Context, key string, rec leave.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert != nil {
		return s.failUpsert
	}
	records, ok := s.docs[key]
	if !ok {
		return docstore.ErrNotFound
	}
	for i, r := range records {
		if r.LeaveID == rec.LeaveID {
			if r.Version < rec.Version {
				records[i] = rec
			}
			return nil
		}
	}
	s.docs[key] = append(records, rec)
	return nil
}

func (s *fakeStore) ListPending(context.Context) ([]leave.PendingLeave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []leave.PendingLeave{}
	for key, records := range s.docs {
		for _, r := range records {
			if r.Status == leave.StatusPending {
				out = append(out, leave.PendingLeave{EmployeeEmail: key, Record: r})
			}
		}
	}
	return out, nil
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []kafka.OutboxEvent
	err    error
}

func (o *fakeOutbox) Create(_ context.Context, ev kafka.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, ev)
	return nil
}

func (o *fakeOutbox) types() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.EventType)
	}
	return out
}
