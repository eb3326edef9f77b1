package lifecycle

import (
	"context"

	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// Entry is a snapshot entry whose entity is known to be a T.
type Entry[T tracking.Entity] struct {
	tracking.Entry
	Entity T
	// Query reads through the committing unit of work, pending changes included.
	Query tracking.Querier
}

// Hooks receives the entries of one entity type from a pending commit.
// Any returned error vetoes the whole commit.
type Hooks[T tracking.Entity] interface {
	OnInsert(ctx context.Context, entry Entry[T]) error
	OnUpdate(ctx context.Context, entry Entry[T]) error
	OnDelete(ctx context.Context, entry Entry[T]) error
}

// NopHooks accepts every change. Embed it to implement only the hooks you need.
type NopHooks[T tracking.Entity] struct{}

func (NopHooks[T]) OnInsert(context.Context, Entry[T]) error { return nil }
func (NopHooks[T]) OnUpdate(context.Context, Entry[T]) error { return nil }
func (NopHooks[T]) OnDelete(context.Context, Entry[T]) error { return nil }

// EntityValidator routes the T entries of a snapshot to Hooks by operation.
type EntityValidator[T tracking.Entity] struct {
	hooks Hooks[T]
}

// NewEntityValidator wraps hooks.
func NewEntityValidator[T tracking.Entity](hooks Hooks[T]) *EntityValidator[T] {
	return &EntityValidator[T]{hooks: hooks}
}

// Handle is an events.EventHandler for pre-commit events.
func (v *EntityValidator[T]) Handle(ctx context.Context, event events.Event) error {
	for _, entry := range event.Changes.Entries() {
		entity, ok := entry.Entity.(T)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		typed := Entry[T]{Entry: entry, Entity: entity, Query: event.Query}

		var err error
		switch entry.Operation {
		case tracking.Insert:
			err = v.hooks.OnInsert(ctx, typed)
		case tracking.Update:
			err = v.hooks.OnUpdate(ctx, typed)
		case tracking.Delete:
			err = v.hooks.OnDelete(ctx, typed)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Register subscribes hooks to pre-commit events on dispatcher.
func Register[T tracking.Entity](dispatcher events.Dispatcher, hooks Hooks[T]) {
	dispatcher.Subscribe(events.EventSavingChanges, NewEntityValidator(hooks).Handle)
}
