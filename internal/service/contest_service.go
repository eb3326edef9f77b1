package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/lifecycle"
	"github.com/spec-kit/contest-service/internal/repository"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

const contestNotFound = "Contest not found."

// ContestService runs the contest commands. Each command uses its own unit of work.
type ContestService struct {
	newUnitOfWork lifecycle.UnitOfWorkFactory
	logger        *zap.Logger
	now           func() time.Time
}

// ContestDependencies bundles collaborators for the contest service.
type ContestDependencies struct {
	UnitOfWork lifecycle.UnitOfWorkFactory
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewContestService constructs the service.
func NewContestService(deps ContestDependencies) *ContestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ContestService{
		newUnitOfWork: deps.UnitOfWork,
		logger:        logger,
		now:           clock,
	}
}

// Create adds a draft contest locking PublishLeadTime from now.
func (s *ContestService) Create(ctx context.Context, name string) (*domain.Contest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	uow := s.newUnitOfWork()
	contest := domain.NewContest(name, s.now())
	repository.NewContestRepository(uow).Add(contest)
	if err := commit(ctx, uow, s.logger); err != nil {
		return nil, err
	}
	s.logger.Info("contest created", zap.String("contest_id", contest.ID))
	return contest, nil
}

// Get returns one contest.
func (s *ContestService) Get(ctx context.Context, id string) (*domain.Contest, error) {
	contest, err := repository.NewContestRepository(s.newUnitOfWork()).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, contestNotFound)
	}
	return contest, nil
}

// Update replaces the name and lock date. Only drafts accept changes to either.
func (s *ContestService) Update(ctx context.Context, id, name string, lockDate time.Time) (*domain.Contest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if lockDate.IsZero() {
		return nil, apperrors.NewValidationError("lock date is required", map[string]any{"field": "lock_date"})
	}
	return s.mutate(ctx, id, func(contest *domain.Contest) {
		contest.Name = name
		contest.LockDate = lockDate.UTC()
	})
}

// Publish moves a draft to public.
func (s *ContestService) Publish(ctx context.Context, id string) (*domain.Contest, error) {
	return s.mutate(ctx, id, func(contest *domain.Contest) {
		contest.Status = domain.ContestStatusPublic
	})
}

// Finalize moves a public contest to finalized.
func (s *ContestService) Finalize(ctx context.Context, id string) (*domain.Contest, error) {
	return s.mutate(ctx, id, func(contest *domain.Contest) {
		contest.Status = domain.ContestStatusFinalized
	})
}

// Delete removes a contest that has no contestants.
func (s *ContestService) Delete(ctx context.Context, id string) error {
	uow := s.newUnitOfWork()
	contests := repository.NewContestRepository(uow)
	contest, err := contests.GetByID(ctx, id)
	if err != nil {
		return notFound(err, contestNotFound)
	}
	contests.Remove(contest)
	if err := commit(ctx, uow, s.logger); err != nil {
		return err
	}
	s.logger.Info("contest deleted", zap.String("contest_id", id))
	return nil
}

func (s *ContestService) mutate(ctx context.Context, id string, apply func(*domain.Contest)) (*domain.Contest, error) {
	uow := s.newUnitOfWork()
	contest, err := repository.NewContestRepository(uow).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, contestNotFound)
	}
	apply(contest)
	if err := commit(ctx, uow, s.logger); err != nil {
		return nil, err
	}
	return contest, nil
}
