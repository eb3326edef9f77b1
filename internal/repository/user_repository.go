package repository

import (
	"context"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
)

// UserRepository defines access to users through a unit of work.
type UserRepository interface {
	Add(user *domain.User)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	uow *persistence.UnitOfWork
}

// NewUserRepository returns a unit-of-work-backed implementation.
func NewUserRepository(uow *persistence.UnitOfWork) UserRepository {
	return &userRepository{uow: uow}
}

func (r *userRepository) Add(user *domain.User) {
	r.uow.Add(user)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return persistence.FindAs[*domain.User](ctx, r.uow, domain.KindUser, id)
}
