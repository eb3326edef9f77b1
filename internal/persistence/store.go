package persistence

import (
	"context"
	"errors"

	"github.com/spec-kit/contest-service/internal/tracking"
)

var (
	// ErrNotFound is returned by stores when an entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrConstraint wraps unique and foreign key violations reported by a store.
	ErrConstraint = errors.New("constraint violation")
	// ErrUnsupportedQuery is returned for a count on a field the store does not index.
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// Store is the storage engine a unit of work commits through.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	// Kinds lists entity kinds in dependency order, parents first.
	Kinds() []tracking.Kind
	Ping(ctx context.Context) error
	Close() error
}

// Tx is one store transaction. Nothing is durable until Commit.
type Tx interface {
	Load(ctx context.Context, kind tracking.Kind, id string) (tracking.Entity, error)
	Count(ctx context.Context, q tracking.Query) (int, error)
	Insert(ctx context.Context, entity tracking.Entity) error
	Update(ctx context.Context, entity tracking.Entity) error
	Delete(ctx context.Context, entity tracking.Entity) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Interceptor observes the save cycle of a unit of work.
type Interceptor interface {
	// SavingChanges runs inside the store transaction before any write; an error aborts the save.
	SavingChanges(ctx context.Context, uow *UnitOfWork, changes tracking.Snapshot) error
	// SavedChanges runs after the transaction committed.
	SavedChanges(ctx context.Context, uow *UnitOfWork, changes tracking.Snapshot) error
	// SaveChangesFailed runs when the outermost save did not commit.
	SaveChangesFailed(ctx context.Context, uow *UnitOfWork, err error)
}

// PostCommitError reports observer failures after a write was committed.
// The write is not rolled back.
type PostCommitError struct {
	Err error
}

func (e *PostCommitError) Error() string {
	return "post-commit notification failed: " + e.Err.Error()
}

func (e *PostCommitError) Unwrap() error {
	return e.Err
}
