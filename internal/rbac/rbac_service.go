package rbac

import (
	"sync"

	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
	Authorize(sess session.Session, resource, action string) error
	Policies() ([]PolicyResponse, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewService wraps an enforcer. If the enforcer holds no policies the
// defaults are seeded.
func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	s := &service{enforcer: enforcer, logger: l}

	existing, err := enforcer.GetPolicy()
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if _, err := enforcer.AddPolicies(DefaultPolicies); err != nil {
			return nil, err
		}
		l.Info("rbac default policies loaded", zap.Int("count", len(DefaultPolicies)))
	}
	return s, nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

// Authorize is the service-layer check: it returns nil when the session's
// role may perform action on resource, apperror.ErrForbidden otherwise.
func (s *service) Authorize(sess session.Session, resource, action string) error {
	if sess.IsZero() {
		return apperror.ErrUnauthorized
	}
	allowed, err := s.Enforce(EnforceRequest{
		Role:     string(sess.Role),
		Resource: resource,
		Action:   action,
	})
	if err != nil {
		return apperror.ErrInternal.WithCause(err)
	}
	if !allowed {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *service) Policies() ([]PolicyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.enforcer.GetPolicy()
	if err != nil {
		return nil, err
	}
	out := make([]PolicyResponse, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		out = append(out, PolicyResponse{Role: row[0], Resource: row[1], Action: row[2]})
	}
	return out, nil
}
