package repository

import (
	"context"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
)

// ContestantRepository stages contestant changes on a unit of work.
type ContestantRepository interface {
	Add(contestant *domain.Contestant)
	GetByID(ctx context.Context, id string) (*domain.Contestant, error)
	Remove(contestant *domain.Contestant)
	// CountByContest includes contestants added or removed on the unit of work but not yet saved.
	CountByContest(ctx context.Context, contestID string) (int, error)
}

type contestantRepository struct {
	uow *persistence.UnitOfWork
}

// NewContestantRepository instantiates repository.
func NewContestantRepository(uow *persistence.UnitOfWork) ContestantRepository {
	return &contestantRepository{uow: uow}
}

func (r *contestantRepository) Add(contestant *domain.Contestant) {
	r.uow.Add(contestant)
}

func (r *contestantRepository) GetByID(ctx context.Context, id string) (*domain.Contestant, error) {
	return persistence.FindAs[*domain.Contestant](ctx, r.uow, domain.KindContestant, id)
}

func (r *contestantRepository) Remove(contestant *domain.Contestant) {
	r.uow.Remove(contestant)
}

func (r *contestantRepository) CountByContest(ctx context.Context, contestID string) (int, error) {
	return r.uow.Count(ctx, domain.ContestantsOf(contestID))
}
