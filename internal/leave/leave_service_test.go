package leave_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-ems/internal/events"
	"go-ems/internal/leave"
	leaveerrors "go-ems/internal/leave/errors"
	"go-ems/internal/rbac"
	"go-ems/internal/rbac/infra"
	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice@corp.com"
	bob   = "bob@corp.com"
)

var (
	fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	aliceSess    = session.New(alice, session.RoleEmployee)
	reviewerSess = session.New("boss@admin.com", session.RoleAdmin)
)

type fixture struct {
	svc       leave.Service
	employees *fakeStore
	admin     *fakeStore
	outbox    *fakeOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enforcer, err := infra.NewEnforcer("")
	require.NoError(t, err)
	authz, err := rbac.NewService(enforcer)
	require.NoError(t, err)

	f := &fixture{
		employees: newFakeStore(alice, bob),
		admin:     newFakeStore(alice, bob),
		outbox:    &fakeOutbox{},
	}
	f.svc = leave.NewService(
		f.employees,
		leave.NewMirror(f.admin, f.outbox),
		authz,
		leave.WithClock(func() time.Time { return fixedNow }),
		leave.WithOutbox(f.outbox),
	)
	return f
}

func day(offset int) string {
	return fixedNow.AddDate(0, 0, offset).Format(leave.DateLayout)
}

func casualRequest() leave.SubmitLeaveRequest {
	return leave.SubmitLeaveRequest{
		LeaveType: "Casual",
		StartDate: day(10),
		EndDate:   day(12),
		Reason:    "Family event out of town",
	}
}

func (f *fixture) submit(t *testing.T, req leave.SubmitLeaveRequest) leave.LeaveResponse {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), aliceSess, alice, req)
	require.NoError(t, err)
	return res.Leave
}

func accept() leave.ReviewLeaveRequest { return leave.ReviewLeaveRequest{Decision: "accept"} }

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid submission is pending and appended last", func(t *testing.T) {
		f := newFixture(t)
		first := f.submit(t, casualRequest())

		res, err := f.svc.Submit(ctx, aliceSess, "  Alice@Corp.com ", leave.SubmitLeaveRequest{
			LeaveType: "WFH", StartDate: day(1), EndDate: day(1), Reason: "Plumber visiting the flat",
		})
		require.NoError(t, err)

		assert.Equal(t, string(leave.StatusPending), res.Leave.Status)
		assert.Equal(t, fixedNow, res.Leave.AppliedAt)
		assert.Equal(t, int64(1), res.Leave.Version)
		assert.NotEmpty(t, res.Leave.LeaveID)
		assert.Equal(t, leave.ConsistencyConsistent, res.Consistency)

		all, err := f.svc.List(ctx, aliceSess, alice)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.LeaveID, all[0].LeaveID)
		assert.Equal(t, res.Leave.LeaveID, all[1].LeaveID)

		mirrored, _ := f.admin.FetchAll(ctx, alice)
		assert.Len(t, mirrored, 2)
	})

	t.Run("OnDuty alias", func(t *testing.T) {
		f := newFixture(t)
		req := casualRequest()
		req.LeaveType = "OnDuty"
		assert.Equal(t, string(leave.TypeOnDuty), f.submit(t, req).LeaveType)
	})

	invalid := []struct {
		name   string
		mutate func(*leave.SubmitLeaveRequest)
		want   error
	}{
		{"end before start", func(r *leave.SubmitLeaveRequest) { r.EndDate = day(9) }, leaveerrors.ErrInvalidDateRange},
		{"unknown leave type", func(r *leave.SubmitLeaveRequest) { r.LeaveType = "Sabbatical" }, leaveerrors.ErrInvalidLeaveType},
		{"unparseable date", func(r *leave.SubmitLeaveRequest) { r.StartDate = "2024-02-30" }, leaveerrors.ErrInvalidDateFormat},
		{"reason too short", func(r *leave.SubmitLeaveRequest) { r.Reason = "too short" }, leaveerrors.ErrInvalidReason},
		{"reason too long", func(r *leave.SubmitLeaveRequest) { r.Reason = strings.Repeat("x", 501) }, leaveerrors.ErrInvalidReason},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := casualRequest()
			tt.mutate(&req)

			_, err := f.svc.Submit(ctx, aliceSess, alice, req)

			assert.ErrorIs(t, err, tt.want)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
			assert.Zero(t, f.employees.appendCalls)

			all, err := f.svc.List(ctx, aliceSess, alice)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}

	t.Run("reason length bounds are inclusive", func(t *testing.T) {
		f := newFixture(t)
		req := casualRequest()
		req.Reason = strings.Repeat("a", 10)
		f.submit(t, req)
		req.Reason = strings.Repeat("a", 500)
		f.submit(t, req)
	})

	t.Run("missing employee document", func(t *testing.T) {
		f := newFixture(t)
		carol := session.New("carol@corp.com", session.RoleEmployee)
		_, err := f.svc.Submit(ctx, carol, carol.Email, casualRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
	})

	t.Run("authoritative store failure fails the operation", func(t *testing.T) {
		f := newFixture(t)
		f.employees.failAppend = errors.New("connection reset")

		_, err := f.svc.Submit(ctx, aliceSess, alice, casualRequest())

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeServiceUnavailable, appErr.Code)
		mirrored, _ := f.admin.FetchAll(ctx, alice)
		assert.Empty(t, mirrored)
	})
}

func TestService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := f.submit(t, casualRequest())

	_, err := f.svc.Submit(ctx, aliceSess, bob, casualRequest())
	assert.ErrorIs(t, err, leaveerrors.ErrNotOwner)

	_, err = f.svc.Submit(ctx, reviewerSess, alice, casualRequest())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Review(ctx, aliceSess, alice, rec.LeaveID, accept())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Cancel(ctx, reviewerSess, alice, rec.LeaveID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Cancel(ctx, session.New(bob, session.RoleEmployee), alice, rec.LeaveID)
	assert.ErrorIs(t, err, leaveerrors.ErrNotOwner)

	_, err = f.svc.Submit(ctx, session.Session{}, alice, casualRequest())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = f.svc.List(ctx, session.New(bob, session.RoleEmployee), alice)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	all, err := f.svc.List(ctx, reviewerSess, alice)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.ListPending(ctx, aliceSess)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("second accept is an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, accept())
		require.NoError(t, err)

		_, err = f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, accept())
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	})

	t.Run("submit review cancel scenario", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())
		assert.Equal(t, string(leave.StatusPending), rec.Status)

		res, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, accept())
		require.NoError(t, err)
		reviewed := res.Leave
		assert.Equal(t, string(leave.StatusAccepted), reviewed.Status)
		assert.Equal(t, rec.StartDate, reviewed.StartDate)
		assert.Equal(t, rec.EndDate, reviewed.EndDate)
		assert.Equal(t, rec.Reason, reviewed.Reason)
		assert.Equal(t, rec.AppliedAt, reviewed.AppliedAt)
		assert.Equal(t, reviewerSess.Email, reviewed.ReviewedBy)
		assert.Equal(t, int64(2), reviewed.Version)

		_, err = f.svc.Cancel(ctx, aliceSess, alice, rec.LeaveID)
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	})

	t.Run("round trip keeps exactly one record", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "Reject"})
		require.NoError(t, err)

		all, err := f.svc.List(ctx, aliceSess, alice)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, string(leave.StatusRejected), all[0].Status)

		mirrored, _ := f.admin.FetchAll(ctx, alice)
		require.Len(t, mirrored, 1)
		assert.Equal(t, leave.StatusRejected, mirrored[0].Status)
	})

	t.Run("concurrent reviewers produce one transition", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		decisions := []string{"accept", "reject", "accept", "reject"}
		errs := make([]error, len(decisions))
		var wg sync.WaitGroup
		for i, d := range decisions {
			wg.Add(1)
			go func(i int, d string) {
				defer wg.Done()
				_, errs[i] = f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: d})
			}(i, d)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		}
		assert.Equal(t, 1, succeeded)

		all, _ := f.employees.FetchAll(ctx, alice)
		require.Len(t, all, 1)
		assert.True(t, all[0].Status.IsTerminal())
	})

	t.Run("stale version token", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())
		stale := int64(7)

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "accept", Version: &stale})
		assert.ErrorIs(t, err, leaveerrors.ErrVersionConflict)

		current := rec.Version
		_, err = f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "accept", Version: &current})
		assert.NoError(t, err)
	})

	t.Run("repeated review with the seen version is an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())
		seen := rec.Version

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "accept", Version: &seen})
		require.NoError(t, err)

		_, err = f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "accept", Version: &seen})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.NotErrorIs(t, err, leaveerrors.ErrVersionConflict)
	})

	t.Run("lost conditional update on a still pending record", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())
		f.employees.conflictOnce = true

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, accept())

		assert.ErrorIs(t, err, leaveerrors.ErrVersionConflict)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
	})

	t.Run("invalid decision and unknown record", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, leave.ReviewLeaveRequest{Decision: "maybe"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDecision)

		_, err = f.svc.Review(ctx, reviewerSess, alice, "missing", accept())
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("review queues a notification event", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		_, err := f.svc.Review(ctx, reviewerSess, alice, rec.LeaveID, accept())
		require.NoError(t, err)

		assert.Equal(t, []string{events.EventLeaveReviewed}, f.outbox.types())
		assert.Equal(t, events.LeaveLifecycleTopic, f.outbox.events[0].Topic)
		assert.Equal(t, alice, f.outbox.events[0].AggregateID)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("future pending leave is cancelled with nothing else changed", func(t *testing.T) {
		f := newFixture(t)
		rec := f.submit(t, casualRequest())

		res, err := f.svc.Cancel(ctx, aliceSess, alice, rec.LeaveID)
		require.NoError(t, err)

		got := res.Leave
		assert.Equal(t, string(leave.StatusCancelled), got.Status)
		assert.Equal(t, rec.LeaveID, got.LeaveID)
		assert.Equal(t, rec.LeaveType, got.LeaveType)
		assert.Equal(t, rec.StartDate, got.StartDate)
		assert.Equal(t, rec.EndDate, got.EndDate)
		assert.Equal(t, rec.Reason, got.Reason)
		assert.Equal(t, rec.AppliedAt, got.AppliedAt)
		assert.Empty(t, got.ReviewedBy)
		assert.Equal(t, leave.ConsistencyConsistent, res.Consistency)

		stored, _ := f.employees.FindOne(ctx, alice, rec.LeaveID)
		assert.Equal(t, leave.StatusCancelled, stored.Status)
	})

	t.Run("started leave is too late regardless of status", func(t *testing.T) {
		f := newFixture(t)
		past := casualRequest()
		past.StartDate, past.EndDate = day(-2), day(1)
		pending := f.submit(t, past)

		today := casualRequest()
		today.StartDate, today.EndDate = day(0), day(0)
		startsToday := f.submit(t, today)

		accepted := f.submit(t, past)
		_, err := f.svc.Review(ctx, reviewerSess, alice, accepted.LeaveID, accept())
		require.NoError(t, err)

		for _, id := range []string{pending.LeaveID, startsToday.LeaveID, accepted.LeaveID} {
			_, err := f.svc.Cancel(ctx, aliceSess, alice, id)
			assert.ErrorIs(t, err, leaveerrors.ErrTooLate)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.CodeTooLate, appErr.Code)
			assert.False(t, errors.Is(err, leaveerrors.ErrInvalidStatusTransition))
		}
	})

	t.Run("today is computed in the configured zone", func(t *testing.T) {
		// 2024-03-01 10:00 UTC is already 2024-03-02 in Auckland
		loc, err := time.LoadLocation("Pacific/Auckland")
		if err != nil {
			t.Skip("tzdata unavailable")
		}
		enforcer, _ := infra.NewEnforcer("")
		authz, _ := rbac.NewService(enforcer)
		store := newFakeStore(alice)
		svc := leave.NewService(store, leave.NewMirror(newFakeStore(alice), nil), authz,
			leave.WithClock(func() time.Time { return fixedNow }),
			leave.WithLocation(loc),
		)

		res, err := svc.Submit(ctx, aliceSess, alice, leave.SubmitLeaveRequest{
			LeaveType: "WFH", StartDate: "2024-03-02", EndDate: "2024-03-02", Reason: "Working from the bach",
		})
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, aliceSess, alice, res.Leave.LeaveID)
		assert.ErrorIs(t, err, leaveerrors.ErrTooLate)
	})
}

func TestService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	enforcer, err := infra.NewEnforcer("")
	require.NoError(t, err)
	authz, err := rbac.NewService(enforcer)
	require.NoError(t, err)

	rdb, cache := redismock.NewClientMock()
	employees := newFakeStore(alice)
	svc := leave.NewService(employees, leave.NewMirror(newFakeStore(alice), nil), authz,
		leave.WithClock(func() time.Time { return fixedNow }),
		leave.WithCacheInvalidation(rdb, "employees:list"),
	)

	cache.ExpectDel("employees:list").SetVal(1)
	first, err := svc.Submit(ctx, aliceSess, alice, casualRequest())
	require.NoError(t, err)

	cache.ExpectDel("employees:list").SetVal(1)
	_, err = svc.Review(ctx, reviewerSess, alice, first.Leave.LeaveID, accept())
	require.NoError(t, err)

	cache.ExpectDel("employees:list").SetVal(1)
	second, err := svc.Submit(ctx, aliceSess, alice, casualRequest())
	require.NoError(t, err)

	cache.ExpectDel("employees:list").SetErr(errors.New("redis down"))
	_, err = svc.Cancel(ctx, aliceSess, alice, second.Leave.LeaveID)
	require.NoError(t, err)

	assert.NoError(t, cache.ExpectationsWereMet())

	_, err = svc.Submit(ctx, aliceSess, alice, leave.SubmitLeaveRequest{LeaveType: "Casual", StartDate: day(3), EndDate: day(1), Reason: "Backwards range"})
	assert.Error(t, err)
	assert.NoError(t, cache.ExpectationsWereMet())
}

func TestService_MirrorLag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin.failUpsert = errors.New("admin view unreachable")

	res, err := f.svc.Submit(ctx, aliceSess, alice, casualRequest())
	require.NoError(t, err)
	assert.Equal(t, leave.ConsistencyMirrorLag, res.Consistency)

	authoritative, err := f.svc.List(ctx, aliceSess, alice)
	require.NoError(t, err)
	require.Len(t, authoritative, 1)
	assert.Equal(t, res.Leave.LeaveID, authoritative[0].LeaveID)

	f.admin.failUpsert = nil
	stale, _ := f.admin.FetchAll(ctx, alice)
	assert.Empty(t, stale)

	assert.Equal(t, []string{events.EventMirrorLag}, f.outbox.types())
	assert.Equal(t, events.MirrorLagTopic, f.outbox.events[0].Topic)

	t.Run("review lag leaves prior state in admin view", func(t *testing.T) {
		require.NoError(t, f.admin.Upsert(ctx, alice, mustFind(t, f.employees, res.Leave.LeaveID)))
		f.admin.failUpsert = errors.New("admin view unreachable")

		reviewed, err := f.svc.Review(ctx, reviewerSess, alice, res.Leave.LeaveID, accept())
		require.NoError(t, err)
		assert.Equal(t, leave.ConsistencyMirrorLag, reviewed.Consistency)

		f.admin.failUpsert = nil
		mirrored, _ := f.admin.FindOne(ctx, alice, res.Leave.LeaveID)
		assert.Equal(t, leave.StatusPending, mirrored.Status)
		current, _ := f.employees.FindOne(ctx, alice, res.Leave.LeaveID)
		assert.Equal(t, leave.StatusAccepted, current.Status)
	})
}

func TestService_ListPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.submit(t, casualRequest())
	b := f.submit(t, casualRequest())
	_, err := f.svc.Review(ctx, reviewerSess, alice, a.LeaveID, accept())
	require.NoError(t, err)

	pending, err := f.svc.ListPending(ctx, reviewerSess)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.LeaveID, pending[0].Leave.LeaveID)
	assert.Equal(t, alice, pending[0].EmployeeEmail)
}

func mustFind(t *testing.T, s *fakeStore, id string) leave.LeaveRecord {
	t.Helper()
	rec, err := s.FindOne(context.Background(), alice, id)
	require.NoError(t, err)
	return rec
}
