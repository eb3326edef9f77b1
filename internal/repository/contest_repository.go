package repository

import (
	"context"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
)

// ContestRepository stages contest changes on a unit of work.
type ContestRepository interface {
	Add(contest *domain.Contest)
	GetByID(ctx context.Context, id string) (*domain.Contest, error)
	Remove(contest *domain.Contest)
}

type contestRepository struct {
	uow *persistence.UnitOfWork
}

// NewContestRepository instantiates repository.
func NewContestRepository(uow *persistence.UnitOfWork) ContestRepository {
	return &contestRepository{uow: uow}
}

func (r *contestRepository) Add(contest *domain.Contest) {
	r.uow.Add(contest)
}

func (r *contestRepository) GetByID(ctx context.Context, id string) (*domain.Contest, error) {
	return persistence.FindAs[*domain.Contest](ctx, r.uow, domain.KindContest, id)
}

func (r *contestRepository) Remove(contest *domain.Contest) {
	r.uow.Remove(contest)
}
