package leave

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go-ems/internal/events"
	leaveerrors "go-ems/internal/leave/errors"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/rbac"
	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/docstore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	minReasonLength = 10
	maxReasonLength = 500
)

// Authorizer is satisfied by rbac.Service.
type Authorizer interface {
	Authorize(sess session.Session, resource, action string) error
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, sess session.Session, employeeEmail string, req SubmitLeaveRequest) (LeaveResult, error)
	List(ctx context.Context, sess session.Session, employeeEmail string) ([]LeaveResponse, error)
	Get(ctx context.Context, sess session.Session, employeeEmail, leaveID string) (LeaveResponse, error)
	ListPending(ctx context.Context, sess session.Session) ([]PendingLeaveResponse, error)
	Review(ctx context.Context, sess session.Session, employeeEmail, leaveID string, req ReviewLeaveRequest) (LeaveResult, error)
	Cancel(ctx context.Context, sess session.Session, employeeEmail, leaveID string) (LeaveResult, error)
}

type service struct {
	employees Repository
	mirror    *Mirror
	authz     Authorizer
	outbox    Outbox
	rdb       *redis.Client
	cacheKeys []string
	now       func() time.Time
	loc       *time.Location
	logger    *zap.Logger
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

// WithClock replaces time.Now; tests pin "today" with it.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocation sets the zone in which the cancellation cut-off is computed.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithOutbox enables leave_reviewed events for notification.
func WithOutbox(outbox Outbox) Option {
	return func(s *service) { s.outbox = outbox }
}

// WithCacheInvalidation drops cached reads of the admin view, such as the
// employee list with its leave counts, after every leave write.
func WithCacheInvalidation(rdb *redis.Client, keys ...string) Option {
	return func(s *service) {
		s.rdb = rdb
		s.cacheKeys = keys
	}
}

func NewService(employees Repository, mirror *Mirror, authz Authorizer, opts ...Option) Service {
	s := &service{
		employees: employees,
		mirror:    mirror,
		authz:     authz,
		now:       time.Now,
		loc:       time.UTC,
		logger:    zap.L().Named("leave.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) getLogger(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) Submit(ctx context.Context, sess session.Session, employeeEmail string, req SubmitLeaveRequest) (LeaveResult, error) {
	key := docstore.Key(employeeEmail)
	if err := s.authorizeOwner(sess, key, rbac.ActionSubmit); err != nil {
		return LeaveResult{}, err
	}

	rec, err := s.validateSubmit(req)
	if err != nil {
		s.getLogger(ctx).Warn("submit leave validation failed", zap.String("employee_email", key), zap.Error(err))
		return LeaveResult{}, err
	}

	if err := s.employees.Append(ctx, key, rec); err != nil {
		s.getLogger(ctx).Error("submit leave persist failed", zap.String("employee_email", key), zap.Error(err))
		return LeaveResult{}, mapRepositoryError(err, leaveerrors.ErrEmployeeNotFound)
	}

	consistency := s.mirror.MirrorToAdminView(ctx, key, rec)
	s.invalidateCache(ctx)

	s.getLogger(ctx).Info("submit leave success",
		zap.String("employee_email", key),
		zap.String("leave_id", rec.LeaveID),
		zap.String("leave_type", string(rec.LeaveType)),
		zap.String("consistency", string(consistency)),
	)
	return LeaveResult{Leave: mapToResponse(rec), Consistency: consistency}, nil
}

func (s *service) List(ctx context.Context, sess session.Session, employeeEmail string) ([]LeaveResponse, error) {
	key := docstore.Key(employeeEmail)
	if err := s.authorizeRead(sess, key); err != nil {
		return nil, err
	}

	records, err := s.employees.FetchAll(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, leaveerrors.ErrEmployeeNotFound)
	}
	return mapToListResponse(records), nil
}

func (s *service) Get(ctx context.Context, sess session.Session, employeeEmail, leaveID string) (LeaveResponse, error) {
	key := docstore.Key(employeeEmail)
	if err := s.authorizeRead(sess, key); err != nil {
		return LeaveResponse{}, err
	}

	rec, err := s.employees.FindOne(ctx, key, leaveID)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err, leaveerrors.ErrLeaveNotFound)
	}
	return mapToResponse(rec), nil
}

// ListPending reads the authoritative employee view so reviewers never act
// on a lagging mirror.
func (s *service) ListPending(ctx context.Context, sess session.Session) ([]PendingLeaveResponse, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceLeave, rbac.ActionReadAll); err != nil {
		return nil, err
	}

	items, err := s.employees.ListPending(ctx)
	if err != nil {
		s.getLogger(ctx).Error("list pending leave failed", zap.Error(err))
		return nil, mapRepositoryError(err, leaveerrors.ErrLeaveNotFound)
	}
	return mapToPendingResponse(items), nil
}

func (s *service) Review(ctx context.Context, sess session.Session, employeeEmail, leaveID string, req ReviewLeaveRequest) (LeaveResult, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceLeave, rbac.ActionReview); err != nil {
		return LeaveResult{}, err
	}
	decision, ok := ParseDecision(req.Decision)
	if !ok {
		return LeaveResult{}, leaveerrors.ErrInvalidDecision
	}

	key := docstore.Key(employeeEmail)
	current, err := s.employees.FindOne(ctx, key, leaveID)
	if err != nil {
		return LeaveResult{}, mapRepositoryError(err, leaveerrors.ErrLeaveNotFound)
	}

	if current.Status != StatusPending {
		return LeaveResult{}, leaveerrors.ErrInvalidStatusTransition
	}
	if req.Version != nil && *req.Version != current.Version {
		return LeaveResult{}, leaveerrors.ErrVersionConflict
	}

	reviewedAt := s.now().UTC()
	updated := current
	updated.Status = decision.Status()
	updated.Version = current.Version + 1
	updated.ReviewedBy = sess.Email
	updated.ReviewedAt = &reviewedAt

	if err := s.replace(ctx, key, current, updated); err != nil {
		s.getLogger(ctx).Warn("review leave failed",
			zap.String("employee_email", key),
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return LeaveResult{}, err
	}

	consistency := s.mirror.MirrorToAdminView(ctx, key, updated)
	s.invalidateCache(ctx)
	s.publishReviewed(ctx, key, updated)

	s.getLogger(ctx).Info("review leave success",
		zap.String("employee_email", key),
		zap.String("leave_id", leaveID),
		zap.String("status", string(updated.Status)),
		zap.String("reviewed_by", sess.Email),
		zap.String("consistency", string(consistency)),
	)
	return LeaveResult{Leave: mapToResponse(updated), Consistency: consistency}, nil
}

// Cancel checks the start date before the status: leave that already began
// is TooLate whatever its state.
func (s *service) Cancel(ctx context.Context, sess session.Session, employeeEmail, leaveID string) (LeaveResult, error) {
	key := docstore.Key(employeeEmail)
	if err := s.authorizeOwner(sess, key, rbac.ActionCancel); err != nil {
		return LeaveResult{}, err
	}

	current, err := s.employees.FindOne(ctx, key, leaveID)
	if err != nil {
		return LeaveResult{}, mapRepositoryError(err, leaveerrors.ErrLeaveNotFound)
	}

	start, err := time.ParseInLocation(DateLayout, current.StartDate, s.loc)
	if err != nil {
		return LeaveResult{}, leaveerrors.ErrInvalidDateFormat
	}
	if !start.After(s.today()) {
		return LeaveResult{}, leaveerrors.ErrTooLate
	}
	if current.Status != StatusPending {
		return LeaveResult{}, leaveerrors.ErrInvalidStatusTransition
	}

	updated := current
	updated.Status = StatusCancelled
	updated.Version = current.Version + 1

	if err := s.replace(ctx, key, current, updated); err != nil {
		return LeaveResult{}, err
	}

	consistency := s.mirror.MirrorToAdminView(ctx, key, updated)
	s.invalidateCache(ctx)

	s.getLogger(ctx).Info("cancel leave success",
		zap.String("employee_email", key),
		zap.String("leave_id", leaveID),
		zap.String("consistency", string(consistency)),
	)
	return LeaveResult{Leave: mapToResponse(updated), Consistency: consistency}, nil
}

// replace performs the conditional update. When it matches nothing the
// record is re-read: a record that already left Pending reports
// InvalidTransition, anything else a version conflict.
func (s *service) replace(ctx context.Context, key string, current, updated LeaveRecord) error {
	err := s.employees.ReplaceOne(ctx, key, current, updated)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrConflict) {
		return mapRepositoryError(err, leaveerrors.ErrLeaveNotFound)
	}

	latest, ferr := s.employees.FindOne(ctx, key, current.LeaveID)
	if ferr != nil {
		return mapRepositoryError(ferr, leaveerrors.ErrLeaveNotFound)
	}
	if latest.Status != StatusPending {
		return leaveerrors.ErrInvalidStatusTransition
	}
	return leaveerrors.ErrVersionConflict
}

func (s *service) invalidateCache(ctx context.Context) {
	if s.rdb == nil || len(s.cacheKeys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, s.cacheKeys...).Err(); err != nil {
		s.getLogger(ctx).Error("failed to invalidate cache",
			zap.Error(err),
			zap.Strings("keys", s.cacheKeys),
		)
	}
}

func (s *service) publishReviewed(ctx context.Context, key string, rec LeaveRecord) {
	if s.outbox == nil {
		return
	}
	ev, err := kafka.NewOutboxEvent(ctx, kafka.AggregateLeave, key, events.EventLeaveReviewed, events.LeaveLifecycleTopic,
		events.LeaveReviewedEvent{
			EventType:     events.EventLeaveReviewed,
			EmployeeEmail: key,
			LeaveID:       rec.LeaveID,
			LeaveType:     string(rec.LeaveType),
			StartDate:     rec.StartDate,
			EndDate:       rec.EndDate,
			Status:        string(rec.Status),
			ReviewedBy:    rec.ReviewedBy,
			OccurredAt:    s.now().UTC(),
		})
	if err == nil {
		err = s.outbox.Create(ctx, ev)
	}
	if err != nil {
		s.getLogger(ctx).Error("leave reviewed event not recorded",
			zap.String("employee_email", key),
			zap.String("leave_id", rec.LeaveID),
			zap.Error(err),
		)
	}
}

func (s *service) authorizeOwner(sess session.Session, key, action string) error {
	if sess.IsZero() {
		return apperror.ErrUnauthorized
	}
	if err := s.authz.Authorize(sess, rbac.ResourceLeave, action); err != nil {
		return err
	}
	if !sess.Owns(key) {
		return leaveerrors.ErrNotOwner
	}
	return nil
}

func (s *service) authorizeRead(sess session.Session, key string) error {
	if sess.Owns(key) {
		return s.authz.Authorize(sess, rbac.ResourceLeave, rbac.ActionReadOwn)
	}
	return s.authz.Authorize(sess, rbac.ResourceLeave, rbac.ActionReadAll)
}

func (s *service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *service) validateSubmit(req SubmitLeaveRequest) (LeaveRecord, error) {
	leaveType, ok := ParseLeaveType(req.LeaveType)
	if !ok {
		return LeaveRecord{}, leaveerrors.ErrInvalidLeaveType
	}

	start, err := time.ParseInLocation(DateLayout, strings.TrimSpace(req.StartDate), s.loc)
	if err != nil {
		return LeaveRecord{}, leaveerrors.ErrInvalidDateFormat
	}
	end, err := time.ParseInLocation(DateLayout, strings.TrimSpace(req.EndDate), s.loc)
	if err != nil {
		return LeaveRecord{}, leaveerrors.ErrInvalidDateFormat
	}
	if end.Before(start) {
		return LeaveRecord{}, leaveerrors.ErrInvalidDateRange
	}

	reason := strings.TrimSpace(req.Reason)
	if n := utf8.RuneCountInString(reason); n < minReasonLength || n > maxReasonLength {
		return LeaveRecord{}, leaveerrors.ErrInvalidReason
	}

	return LeaveRecord{
		LeaveID:   uuid.NewString(),
		LeaveType: leaveType,
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
		Reason:    reason,
		AppliedAt: s.now().UTC(),
		Status:    StatusPending,
		Version:   1,
	}, nil
}
