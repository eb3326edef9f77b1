package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/lifecycle"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// forbiddenTransitions maps original status to the statuses it may never move to.
var forbiddenTransitions = map[domain.ContestStatus]map[domain.ContestStatus]string{
	domain.ContestStatusPublic: {
		domain.ContestStatusDraft: "A contest cannot be reverted to a draft status once it has been published.",
	},
	domain.ContestStatusFinalized: {
		domain.ContestStatusDraft:  "A contest cannot be reverted to a draft status once it has been finalized.",
		domain.ContestStatusPublic: "A contest cannot be reverted to a public status once it has been finalized.",
	},
	domain.ContestStatusDraft: {
		domain.ContestStatusFinalized: "A contest cannot be moved into a finalized status from a draft status.",
	},
}

// ContestLifecycleValidator enforces the contest state machine on every commit.
type ContestLifecycleValidator struct {
	lifecycle.NopHooks[*domain.Contest]
	logger *zap.Logger
	now    func() time.Time
}

// NewContestLifecycleValidator builds the validator. A nil clock means time.Now.
func NewContestLifecycleValidator(logger *zap.Logger, now func() time.Time) *ContestLifecycleValidator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContestLifecycleValidator{logger: logger, now: now}
}

// Register subscribes the validator to pre-commit events.
func (v *ContestLifecycleValidator) Register(dispatcher events.Dispatcher) {
	lifecycle.Register[*domain.Contest](dispatcher, v)
}

// OnInsert only admits drafts.
func (v *ContestLifecycleValidator) OnInsert(_ context.Context, entry lifecycle.Entry[*domain.Contest]) error {
	contest := entry.Entity
	if contest.Status != domain.ContestStatusDraft {
		v.logger.Info("rejected contest not created as draft",
			zap.String("contest_id", contest.ID), zap.String("status", string(contest.Status)))
		return domain.ErrInvalidInitialState
	}
	return nil
}

// OnUpdate checks transitions, then the publish and finalize guards, then immutability.
func (v *ContestLifecycleValidator) OnUpdate(ctx context.Context, entry lifecycle.Entry[*domain.Contest]) error {
	contest := entry.Entity
	status := tracking.PropertyOf[domain.ContestStatus](entry.Entry, domain.ContestFieldStatus)
	from, to := status.Original, status.Current
	logger := v.logger.With(zap.String("contest_id", contest.ID),
		zap.String("from", string(from)), zap.String("to", string(to)))

	if status.IsModified {
		if message, forbidden := forbiddenTransitions[from][to]; forbidden {
			logger.Info("rejected forbidden contest transition")
			return domain.ErrIllegalTransition.WithMessage(message)
		}
	}

	now := v.now()
	if from == domain.ContestStatusDraft && to == domain.ContestStatusPublic {
		if contest.LockDate.Before(now.Add(domain.PublishLeadTime)) {
			logger.Info("rejected publish with near lock date", zap.Time("lock_date", contest.LockDate))
			return domain.ErrPublishLockDateTooSoon
		}
	}

	if from == domain.ContestStatusPublic && to == domain.ContestStatusFinalized {
		if contest.LockDate.After(now) {
			logger.Info("rejected finalize before lock date", zap.Time("lock_date", contest.LockDate))
			return domain.ErrFinalizeLockDateNotPassed
		}
		count, err := entry.Query.Count(ctx, domain.ContestantsOf(contest.ID))
		if err != nil {
			return fmt.Errorf("count contestants of %s: %w", contest.ID, err)
		}
		if count < domain.MinContestantsToFinalize {
			logger.Info("rejected finalize with too few contestants", zap.Int("contestants", count))
			return domain.ErrFinalizeInsufficientContestants.WithDetails(map[string]any{"contestants": count})
		}
	}

	if contest.Status != domain.ContestStatusDraft {
		if entry.Property(domain.ContestFieldName).IsModified {
			logger.Info("rejected name change on published contest")
			return domain.ErrNameImmutableAfterPublish
		}
		if entry.Property(domain.ContestFieldLockDate).IsModified {
			logger.Info("rejected lock date change on published contest")
			return domain.ErrLockDateImmutableAfterPublish
		}
	}
	return nil
}

// OnDelete refuses to drop a contest that still has contestants.
func (v *ContestLifecycleValidator) OnDelete(ctx context.Context, entry lifecycle.Entry[*domain.Contest]) error {
	contest := entry.Entity
	hasContestants, err := entry.Query.Any(ctx, domain.ContestantsOf(contest.ID))
	if err != nil {
		return fmt.Errorf("check contestants of %s: %w", contest.ID, err)
	}
	if hasContestants {
		v.logger.Info("rejected delete of contest with contestants", zap.String("contest_id", contest.ID))
		return domain.ErrDeleteBlockedByContestants
	}
	return nil
}
