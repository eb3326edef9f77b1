package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// commit saves uow. Observer failures after the commit are logged and do not fail the command.
func commit(ctx context.Context, uow *persistence.UnitOfWork, logger *zap.Logger) error {
	n, err := uow.SaveChanges(ctx)
	var postErr *persistence.PostCommitError
	if errors.As(err, &postErr) {
		logger.Warn("changes committed but observers failed", zap.Int("entities", n), zap.Error(postErr.Err))
		return nil
	}
	if err != nil {
		return storeError(err)
	}
	logger.Debug("changes committed", zap.Int("entities", n))
	return nil
}

// storeError translates store failures; lifecycle errors pass through unchanged.
func storeError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, persistence.ErrConstraint):
		return apperrors.NewConflict("the change conflicts with existing data", map[string]any{"reason": err.Error()})
	default:
		return err
	}
}

// notFound maps a missing entity to a NotFound error with message.
func notFound(err error, message string) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.ErrNotFound.WithMessage(message)
	}
	return err
}
