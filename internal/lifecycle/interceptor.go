// Package lifecycle runs entity validators inside the unit of work commit.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/observability"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/tracking"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// GuardState is the phase of the commit cycle an interceptor is in.
type GuardState int

const (
	Idle GuardState = iota
	Validating
	Finalizing
)

func (s GuardState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Finalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// Interceptor publishes change snapshots around a unit of work commit.
// Saves issued while it is not Idle pass through unvalidated and unpublished.
// It holds per-unit-of-work state; never share one between units of work.
type Interceptor struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
	state      GuardState
}

// NewInterceptor builds an Idle interceptor.
func NewInterceptor(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// State reports the current guard state.
func (i *Interceptor) State() GuardState {
	return i.state
}

// SavingChanges publishes the snapshot to validators. The first error vetoes the commit.
func (i *Interceptor) SavingChanges(ctx context.Context, uow *persistence.UnitOfWork, changes tracking.Snapshot) error {
	if uow.SkipLifecycleValidation {
		i.metrics.RecordCommit(observability.CommitSkipped)
		return nil
	}
	if i.state != Idle {
		i.logger.Debug("nested save bypasses validation",
			zap.Stringer("guard", i.state), zap.Int("entries", changes.Len()))
		return nil
	}

	i.state = Validating
	event := i.newEvent(events.EventSavingChanges, changes, uow)
	if err := i.dispatcher.Publish(ctx, event); err != nil {
		i.state = Idle
		i.recordRejection(err)
		i.logger.Info("commit rejected",
			zap.String("event_id", event.ID), zap.Int("entries", changes.Len()), zap.Error(err))
		return err
	}
	return nil
}

// SavedChanges notifies every post-commit observer and returns their aggregated errors.
func (i *Interceptor) SavedChanges(ctx context.Context, uow *persistence.UnitOfWork, changes tracking.Snapshot) error {
	if uow.SkipLifecycleValidation || i.state == Finalizing {
		return nil
	}

	i.state = Finalizing
	defer func() { i.state = Idle }()

	i.metrics.RecordCommit(observability.CommitCommitted)
	event := i.newEvent(events.EventSavedChanges, changes, uow)
	if err := i.dispatcher.Broadcast(ctx, event); err != nil {
		i.logger.Warn("post-commit observers failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}

// SaveChangesFailed returns the guard to Idle so the unit of work can be fixed and saved again.
func (i *Interceptor) SaveChangesFailed(_ context.Context, uow *persistence.UnitOfWork, err error) {
	var domainErr *apperrors.DomainError
	if !uow.SkipLifecycleValidation && !errors.As(err, &domainErr) {
		i.metrics.RecordCommit(observability.CommitFailed)
		i.logger.Warn("commit failed", zap.Stringer("guard", i.state), zap.Error(err))
	}
	i.state = Idle
}

func (i *Interceptor) newEvent(eventType events.EventType, changes tracking.Snapshot, uow *persistence.UnitOfWork) events.Event {
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: i.now().UTC(),
		Changes:   changes,
		Query:     uow,
	}
}

func (i *Interceptor) recordRejection(err error) {
	i.metrics.RecordCommit(observability.CommitRejected)
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		i.metrics.RecordRejection(domainErr.Code)
		return
	}
	i.metrics.RecordRejection("UNCLASSIFIED")
}

var _ persistence.Interceptor = (*Interceptor)(nil)
