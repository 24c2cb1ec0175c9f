package employee

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	autherrors "go-ems/internal/auth/errors"
	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/events"
	"go-ems/internal/leave"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/rbac"
	"go-ems/internal/session"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/docstore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeListKey = "employees:list"
	employeeListTTL = time.Hour
)

// CredentialProvider is the slice of the auth service used to create and
// revoke login credentials alongside the profile.
type CredentialProvider interface {
	CreateCredential(ctx context.Context, email, name, password string) error
	RemoveCredential(ctx context.Context, email string) error
}

// Authorizer is satisfied by rbac.Service.
type Authorizer interface {
	Authorize(sess session.Session, resource, action string) error
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Onboard(ctx context.Context, sess session.Session, req OnboardEmployeeRequest) (EmployeeResult, error)
	List(ctx context.Context, sess session.Session) ([]EmployeeResponse, error)
	Get(ctx context.Context, sess session.Session, email string) (EmployeeResponse, error)
	Update(ctx context.Context, sess session.Session, email string, req UpdateEmployeeRequest) (EmployeeResult, error)
	Delete(ctx context.Context, sess session.Session, email string) (leave.Consistency, error)
}

type service struct {
	employees   Repository
	admin       Repository
	credentials CredentialProvider
	authz       Authorizer
	outbox      leave.Outbox
	rdb         *redis.Client
	sf          *singleflight.Group
	adminDomain string
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("employee.service")
		}
	}
}

// WithOutbox enables mirror-lag and employee_onboarded events.
func WithOutbox(outbox leave.Outbox) Option {
	return func(s *service) { s.outbox = outbox }
}

// WithCache enables the Redis cache for List.
func WithCache(rdb *redis.Client) Option {
	return func(s *service) { s.rdb = rdb }
}

func WithAdminDomain(domain string) Option {
	return func(s *service) {
		if domain != "" {
			s.adminDomain = domain
		}
	}
}

func NewService(employees, admin Repository, credentials CredentialProvider, authz Authorizer, opts ...Option) Service {
	s := &service{
		employees:   employees,
		admin:       admin,
		credentials: credentials,
		authz:       authz,
		sf:          &singleflight.Group{},
		adminDomain: session.DefaultAdminDomain,
		now:         time.Now,
		logger:      zap.L().Named("employee.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) getLogger(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) Onboard(ctx context.Context, sess session.Session, req OnboardEmployeeRequest) (EmployeeResult, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceEmployee, rbac.ActionCreate); err != nil {
		return EmployeeResult{}, err
	}

	key := docstore.Key(req.Email)
	if key == "" {
		return EmployeeResult{}, employeeerrors.ErrInvalidEmail
	}
	if session.RoleForEmail(key, s.adminDomain) == session.RoleAdmin {
		return EmployeeResult{}, employeeerrors.ErrAdminNotOnboardable
	}

	logger := s.getLogger(ctx)
	logger.Debug("onboard employee requested",
		zap.String("email", key),
		zap.String("by", sess.Email),
	)

	if err := s.credentials.CreateCredential(ctx, key, req.Name, req.Name+"@"+req.Hint); err != nil {
		if errors.Is(err, autherrors.ErrEmailAlreadyRegistered) {
			return EmployeeResult{}, employeeerrors.ErrEmployeeAlreadyExists
		}
		logger.Error("onboard employee credential failed", zap.String("email", key), zap.Error(err))
		return EmployeeResult{}, err
	}

	now := s.now().UTC()
	profile := &Profile{
		ID:           key,
		Name:         req.Name,
		Email:        key,
		Work:         req.Work,
		Salary:       req.Salary,
		Phone:        req.Phone,
		Address:      req.Address,
		Project:      req.Project,
		LeaveRecords: []leave.LeaveRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.employees.Create(ctx, profile); err != nil {
		logger.Error("onboard employee persist failed", zap.String("email", key), zap.Error(err))
		// tanpa profil, kredensial tidak boleh tertinggal
		if rbErr := s.credentials.RemoveCredential(ctx, key); rbErr != nil {
			logger.Error("onboard employee credential rollback failed", zap.String("email", key), zap.Error(rbErr))
		}
		return EmployeeResult{}, mapRepositoryError(err)
	}

	consistency := leave.ConsistencyConsistent
	if err := s.admin.Replace(ctx, profile); err != nil {
		logger.Warn("onboard employee admin mirror failed", zap.String("email", key), zap.Error(err))
		leave.RecordMirrorLag(ctx, s.outbox, logger, key, events.MirrorScopeProfile, "", "onboard", err)
		consistency = leave.ConsistencyMirrorLag
	}

	s.invalidateList(ctx)
	s.publishOnboarded(ctx, profile)

	logger.Info("onboard employee success",
		zap.String("email", key),
		zap.String("consistency", string(consistency)),
	)
	return EmployeeResult{Employee: mapToResponse(*profile), Consistency: consistency}, nil
}

func (s *service) List(ctx context.Context, sess session.Session) ([]EmployeeResponse, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceEmployee, rbac.ActionList); err != nil {
		return nil, err
	}

	// 1. Cek Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, EmployeeListKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// 2. Singleflight supaya dashboard admin tidak membanjiri Mongo
	v, err, _ := s.sf.Do(EmployeeListKey, func() (interface{}, error) {
		profiles, err := s.admin.FindAll(ctx)
		if err != nil {
			s.getLogger(ctx).Error("list employees failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(profiles)

		// 3. Simpan ke Redis
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, EmployeeListKey, jsonData, employeeListTTL)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) Get(ctx context.Context, sess session.Session, email string) (EmployeeResponse, error) {
	key := docstore.Key(email)

	if sess.Owns(key) {
		if err := s.authz.Authorize(sess, rbac.ResourceProfile, rbac.ActionReadOwn); err != nil {
			return EmployeeResponse{}, err
		}
		// admins have no employee document of their own
		if sess.IsReviewer() {
			return EmployeeResponse{Email: key, Name: session.LocalPart(key)}, nil
		}
	} else if err := s.authz.Authorize(sess, rbac.ResourceEmployee, rbac.ActionList); err != nil {
		return EmployeeResponse{}, err
	}

	profile, err := s.employees.FindByEmail(ctx, key)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			s.getLogger(ctx).Error("get employee failed", zap.String("email", key), zap.Error(err))
		}
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*profile), nil
}

func (s *service) Update(ctx context.Context, sess session.Session, email string, req UpdateEmployeeRequest) (EmployeeResult, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceEmployee, rbac.ActionUpdate); err != nil {
		return EmployeeResult{}, err
	}

	key := docstore.Key(email)
	logger := s.getLogger(ctx)

	profile, err := s.employees.UpdateProfile(ctx, key, req.fields())
	if err != nil {
		logger.Error("update employee persist failed", zap.String("email", key), zap.Error(err))
		return EmployeeResult{}, mapRepositoryError(err)
	}

	consistency := leave.ConsistencyConsistent
	if _, err := s.admin.UpdateProfile(ctx, key, req.fields()); err != nil {
		logger.Warn("update employee admin mirror failed", zap.String("email", key), zap.Error(err))
		leave.RecordMirrorLag(ctx, s.outbox, logger, key, events.MirrorScopeProfile, "", "update", err)
		consistency = leave.ConsistencyMirrorLag
	}

	s.invalidateList(ctx)

	logger.Info("update employee success",
		zap.String("email", key),
		zap.String("consistency", string(consistency)),
	)
	return EmployeeResult{Employee: mapToResponse(*profile), Consistency: consistency}, nil
}

func (s *service) Delete(ctx context.Context, sess session.Session, email string) (leave.Consistency, error) {
	if err := s.authz.Authorize(sess, rbac.ResourceEmployee, rbac.ActionDelete); err != nil {
		return "", err
	}

	key := docstore.Key(email)
	logger := s.getLogger(ctx)

	if err := s.employees.Delete(ctx, key); err != nil {
		logger.Error("delete employee failed", zap.String("email", key), zap.Error(err))
		return "", mapRepositoryError(err)
	}

	consistency := leave.ConsistencyConsistent
	if err := s.admin.Delete(ctx, key); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		logger.Warn("delete employee admin mirror failed", zap.String("email", key), zap.Error(err))
		leave.RecordMirrorLag(ctx, s.outbox, logger, key, events.MirrorScopeProfile, "", "delete", err)
		consistency = leave.ConsistencyMirrorLag
	}

	if err := s.credentials.RemoveCredential(ctx, key); err != nil && !errors.Is(err, autherrors.ErrUserNotFound) {
		logger.Error("delete employee credential removal failed", zap.String("email", key), zap.Error(err))
	}

	s.invalidateList(ctx)

	logger.Info("delete employee success",
		zap.String("email", key),
		zap.String("consistency", string(consistency)),
	)
	return consistency, nil
}

func (s *service) invalidateList(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeListKey).Err(); err != nil {
		s.getLogger(ctx).Error("failed to invalidate employee list cache",
			zap.Error(err),
			zap.String("key", EmployeeListKey),
		)
	}
}

func (s *service) publishOnboarded(ctx context.Context, p *Profile) {
	if s.outbox == nil {
		return
	}
	ev, err := kafka.NewOutboxEvent(ctx, kafka.AggregateEmployee, p.ID, events.EventEmployeeOnboarded, events.EmployeeLifecycleTopic,
		events.EmployeeOnboardedEvent{
			EventType:  events.EventEmployeeOnboarded,
			Email:      p.Email,
			Name:       p.Name,
			OccurredAt: s.now().UTC(),
		})
	if err == nil {
		err = s.outbox.Create(ctx, ev)
	}
	if err != nil {
		s.getLogger(ctx).Error("employee onboarded event not queued", zap.String("email", p.Email), zap.Error(err))
	}
}
