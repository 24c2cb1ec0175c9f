package leave

import (
	"context"

	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/docstore"

	"go.uber.org/zap"
)

// Outbox is the part of the outbox repository the leave module writes to.
type Outbox interface {
	Create(ctx context.Context, event kafka.OutboxEvent) error
}

// Mirror copies records into the admin view. It never fails the caller: a
// failed copy is logged, queued as a mirror-lag event for reconciliation
// and reported as ConsistencyMirrorLag.
type Mirror struct {
	admin  Repository
	outbox Outbox
	logger *zap.Logger
}

func NewMirror(admin Repository, outbox Outbox, logger ...*zap.Logger) *Mirror {
	l := zap.L().Named("leave.mirror")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.mirror")
	}
	return &Mirror{admin: admin, outbox: outbox, logger: l}
}

func (m *Mirror) MirrorToAdminView(ctx context.Context, employeeKey string, rec LeaveRecord) Consistency {
	key := docstore.Key(employeeKey)
	err := m.admin.Upsert(ctx, key, rec)
	if err == nil {
		return ConsistencyConsistent
	}

	logger := contextutil.GetLogger(ctx, m.logger)
	logger.Warn("admin view mirror failed",
		zap.String("employee_email", key),
		zap.String("leave_id", rec.LeaveID),
		zap.Int64("version", rec.Version),
		zap.Error(err),
	)
	RecordMirrorLag(ctx, m.outbox, logger, key, events.MirrorScopeLeave, rec.LeaveID, "upsert", err)
	return ConsistencyMirrorLag
}

// RecordMirrorLag queues a mirror-lag event. Failure to queue is only
// logged; the periodic reconcile sweep still repairs the view.
func RecordMirrorLag(ctx context.Context, outbox Outbox, logger *zap.Logger, key, scope, ref, op string, cause error) {
	if outbox == nil {
		return
	}
	ev, err := kafka.NewMirrorLagEvent(ctx, key, scope, ref, op, cause)
	if err == nil {
		err = outbox.Create(ctx, ev)
	}
	if err != nil {
		logger.Error("mirror lag event not recorded",
			zap.String("employee_email", key),
			zap.String("scope", scope),
			zap.Error(err),
		)
	}
}
