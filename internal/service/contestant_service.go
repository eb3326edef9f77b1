package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/lifecycle"
	"github.com/spec-kit/contest-service/internal/repository"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

const (
	userNotFound       = "User not found."
	contestantNotFound = "Contestant not found."
)

// ContestantService manages users and their enrollment in contests.
type ContestantService struct {
	newUnitOfWork lifecycle.UnitOfWorkFactory
	logger        *zap.Logger
}

// NewContestantService constructs the service.
func NewContestantService(newUnitOfWork lifecycle.UnitOfWorkFactory, logger *zap.Logger) *ContestantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContestantService{newUnitOfWork: newUnitOfWork, logger: logger}
}

// RegisterUser creates a user. Usernames are unique.
func (s *ContestantService) RegisterUser(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", map[string]any{"field": "username"})
	}
	uow := s.newUnitOfWork()
	user := &domain.User{Username: username}
	repository.NewUserRepository(uow).Add(user)
	if err := commit(ctx, uow, s.logger); err != nil {
		return nil, err
	}
	return user, nil
}

// Enroll adds userID as a contestant of contestID.
func (s *ContestantService) Enroll(ctx context.Context, contestID, userID string) (*domain.Contestant, error) {
	uow := s.newUnitOfWork()
	if _, err := repository.NewContestRepository(uow).GetByID(ctx, contestID); err != nil {
		return nil, notFound(err, contestNotFound)
	}
	if _, err := repository.NewUserRepository(uow).GetByID(ctx, userID); err != nil {
		return nil, notFound(err, userNotFound)
	}

	contestant := &domain.Contestant{UserID: userID, ContestID: contestID}
	repository.NewContestantRepository(uow).Add(contestant)
	if err := commit(ctx, uow, s.logger); err != nil {
		return nil, err
	}
	s.logger.Info("contestant enrolled",
		zap.String("contest_id", contestID), zap.String("contestant_id", contestant.ID))
	return contestant, nil
}

// Withdraw removes a contestant.
func (s *ContestantService) Withdraw(ctx context.Context, contestantID string) error {
	uow := s.newUnitOfWork()
	contestants := repository.NewContestantRepository(uow)
	contestant, err := contestants.GetByID(ctx, contestantID)
	if err != nil {
		return notFound(err, contestantNotFound)
	}
	contestants.Remove(contestant)
	return commit(ctx, uow, s.logger)
}

// CountContestants returns how many contestants contestID has.
func (s *ContestantService) CountContestants(ctx context.Context, contestID string) (int, error) {
	uow := s.newUnitOfWork()
	if _, err := repository.NewContestRepository(uow).GetByID(ctx, contestID); err != nil {
		return 0, notFound(err, contestNotFound)
	}
	return repository.NewContestantRepository(uow).CountByContest(ctx, contestID)
}
