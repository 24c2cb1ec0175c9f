// Package reconcile repairs the admin view from the authoritative employee
// view. It runs on mirror-lag events, on a timer and on admin request.
package reconcile

import (
	"bytes"
	"context"
	"errors"

	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/docstore"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeInSync   Outcome = "in_sync"
	OutcomeRepaired Outcome = "repaired"
	OutcomeDeleted  Outcome = "deleted"
)

type SyncResult struct {
	Email    string  `json:"email"`
	Outcome  Outcome `json:"outcome"`
	Migrated int     `json:"migrated,omitempty"`
}

type SweepResult struct {
	Checked  int `json:"checked"`
	InSync   int `json:"in_sync"`
	Repaired int `json:"repaired"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
	Migrated int `json:"migrated"`
}

//go:generate mockgen -source=reconcile_service.go -destination=mock/reconcile_service_mock.go -package=mock
type Service interface {
	SyncEmployee(ctx context.Context, email string) (SyncResult, error)
	Sweep(ctx context.Context) (SweepResult, error)
}

type service struct {
	employees employee.Repository
	admin     employee.Repository
	migrators []leave.LegacyMigrator
	rdb       *redis.Client
	logger    *zap.Logger
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("reconcile.service")
		}
	}
}

// WithLegacyMigrators upgrades pre-versioning leave records before a view
// is read. Pass one migrator per collection, employee view first.
func WithLegacyMigrators(migrators ...leave.LegacyMigrator) Option {
	return func(s *service) { s.migrators = migrators }
}

// WithCache invalidates the cached employee list after a repair.
func WithCache(rdb *redis.Client) Option {
	return func(s *service) { s.rdb = rdb }
}

func NewService(employees, admin employee.Repository, opts ...Option) Service {
	s := &service{
		employees: employees,
		admin:     admin,
		logger:    zap.L().Named("reconcile.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SyncEmployee(ctx context.Context, email string) (SyncResult, error) {
	key := docstore.Key(email)
	logger := contextutil.GetLogger(ctx, s.logger)

	migrated := 0
	for _, m := range s.migrators {
		n, err := m.MigrateLegacy(ctx, key)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			logger.Error("reconcile legacy upgrade failed", zap.String("email", key), zap.Error(err))
			return SyncResult{}, apperror.StoreUnavailable(err)
		}
		migrated += n
	}

	src, err := s.employees.FindByEmail(ctx, key)
	if errors.Is(err, docstore.ErrNotFound) {
		res, err := s.dropAdmin(ctx, key)
		res.Migrated = migrated
		return res, err
	}
	if err != nil {
		logger.Error("reconcile read employee view failed", zap.String("email", key), zap.Error(err))
		return SyncResult{}, apperror.StoreUnavailable(err)
	}

	dst, err := s.admin.FindByEmail(ctx, key)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		logger.Error("reconcile read admin view failed", zap.String("email", key), zap.Error(err))
		return SyncResult{}, apperror.StoreUnavailable(err)
	}
	if dst != nil && sameDocument(src, dst) {
		return SyncResult{Email: key, Outcome: OutcomeInSync, Migrated: migrated}, nil
	}

	if err := s.admin.Replace(ctx, src); err != nil {
		logger.Error("reconcile repair admin view failed", zap.String("email", key), zap.Error(err))
		return SyncResult{}, apperror.StoreUnavailable(err)
	}
	s.invalidateList(ctx)
	logger.Info("admin view repaired", zap.String("email", key), zap.Int("leave_records", len(src.LeaveRecords)))
	return SyncResult{Email: key, Outcome: OutcomeRepaired, Migrated: migrated}, nil
}

func (s *service) dropAdmin(ctx context.Context, key string) (SyncResult, error) {
	err := s.admin.Delete(ctx, key)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return SyncResult{Email: key, Outcome: OutcomeInSync}, nil
	case err != nil:
		contextutil.GetLogger(ctx, s.logger).Error("reconcile drop orphan failed", zap.String("email", key), zap.Error(err))
		return SyncResult{}, apperror.StoreUnavailable(err)
	}
	s.invalidateList(ctx)
	contextutil.GetLogger(ctx, s.logger).Info("orphan admin document deleted", zap.String("email", key))
	return SyncResult{Email: key, Outcome: OutcomeDeleted}, nil
}

// Sweep compares both views in full. A failure on one document is counted
// and the sweep moves on.
func (s *service) Sweep(ctx context.Context) (SweepResult, error) {
	logger := contextutil.GetLogger(ctx, s.logger)

	var res SweepResult
	s.migrateAll(ctx, &res)

	sources, err := s.employees.FindAll(ctx)
	if err != nil {
		return SweepResult{}, apperror.StoreUnavailable(err)
	}
	mirrors, err := s.admin.FindAll(ctx)
	if err != nil {
		return SweepResult{}, apperror.StoreUnavailable(err)
	}

	byKey := make(map[string]*employee.Profile, len(mirrors))
	for i := range mirrors {
		byKey[mirrors[i].ID] = &mirrors[i]
	}

	for i := range sources {
		src := &sources[i]
		res.Checked++

		dst, ok := byKey[src.ID]
		delete(byKey, src.ID)
		if ok && sameDocument(src, dst) {
			res.InSync++
			continue
		}
		if err := s.admin.Replace(ctx, src); err != nil {
			logger.Warn("sweep repair failed", zap.String("email", src.ID), zap.Error(err))
			res.Failed++
			continue
		}
		res.Repaired++
	}

	for key := range byKey {
		res.Checked++
		if err := s.admin.Delete(ctx, key); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			logger.Warn("sweep orphan delete failed", zap.String("email", key), zap.Error(err))
			res.Failed++
			continue
		}
		res.Deleted++
	}

	if res.Repaired > 0 || res.Deleted > 0 {
		s.invalidateList(ctx)
	}

	logger.Info("reconcile sweep finished",
		zap.Int("checked", res.Checked),
		zap.Int("migrated", res.Migrated),
		zap.Int("repaired", res.Repaired),
		zap.Int("deleted", res.Deleted),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// migrateAll upgrades legacy leave records in every view. Failures are
// counted; the affected document then fails to load or is retried next sweep.
func (s *service) migrateAll(ctx context.Context, res *SweepResult) {
	logger := contextutil.GetLogger(ctx, s.logger)
	for _, m := range s.migrators {
		keys, err := m.LegacyKeys(ctx)
		if err != nil {
			logger.Warn("sweep legacy scan failed", zap.Error(err))
			res.Failed++
			continue
		}
		for _, key := range keys {
			n, err := m.MigrateLegacy(ctx, key)
			if err != nil && !errors.Is(err, docstore.ErrNotFound) {
				logger.Warn("sweep legacy upgrade failed", zap.String("email", key), zap.Error(err))
				res.Failed++
				continue
			}
			res.Migrated += n
		}
	}
}

func (s *service) invalidateList(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, employee.EmployeeListKey).Err(); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("failed to invalidate employee list cache",
			zap.Error(err),
			zap.String("key", employee.EmployeeListKey),
		)
	}
}

// sameDocument compares the stored BSON encoding of two profiles.
func sameDocument(a, b *employee.Profile) bool {
	ab, err := bson.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := bson.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
