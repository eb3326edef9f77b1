package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/contest-service/internal/tracking"
)

// ErrSynchronousSave is returned by SaveChangesSync. Saves must go through SaveChanges.
var ErrSynchronousSave = errors.New("synchronous save is not supported; use SaveChanges with a context")

type entryState int

const (
	stateUnchanged entryState = iota
	stateAdded
	stateDeleted
)

type entryKey struct {
	kind tracking.Kind
	id   string
}

type trackedEntry struct {
	entity   tracking.Entity
	state    entryState
	original tracking.Values
}

func keyOf(entity tracking.Entity) entryKey {
	return entryKey{kind: entity.EntityKind(), id: entity.EntityID()}
}

// UnitOfWork tracks entity changes and commits them atomically through a Store.
// It is not safe for concurrent use; build one per command.
type UnitOfWork struct {
	// SkipLifecycleValidation bypasses the interceptor entirely.
	// Only test harnesses seeding data may set it; never enable it in a running service.
	SkipLifecycleValidation bool

	store       Store
	interceptor Interceptor
	entries     []*trackedEntry
	index       map[entryKey]*trackedEntry
	tx          Tx
	depth       int
	nested      int
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithInterceptor installs the save interceptor.
func WithInterceptor(interceptor Interceptor) Option {
	return func(u *UnitOfWork) {
		u.interceptor = interceptor
	}
}

// NewUnitOfWork creates an empty unit of work over store.
func NewUnitOfWork(store Store, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		store: store,
		index: make(map[entryKey]*trackedEntry),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Add tracks entity for insertion, assigning an id when it has none.
func (u *UnitOfWork) Add(entity tracking.Entity) {
	if entity.EntityID() == "" {
		entity.SetEntityID(uuid.NewString())
	}
	if te, ok := u.index[keyOf(entity)]; ok {
		if te.state == stateDeleted {
			te.state = stateUnchanged
		}
		return
	}
	u.track(entity, stateAdded, nil)
}

// Attach tracks an entity that already exists in the store as unchanged.
func (u *UnitOfWork) Attach(entity tracking.Entity) error {
	if entity.EntityID() == "" {
		return fmt.Errorf("attach %s: entity has no id", entity.EntityKind())
	}
	if _, ok := u.index[keyOf(entity)]; ok {
		return nil
	}
	u.track(entity, stateUnchanged, entity.TrackedValues().Clone())
	return nil
}

// Remove marks entity for deletion. Entities added in this unit of work are simply forgotten.
func (u *UnitOfWork) Remove(entity tracking.Entity) {
	te, ok := u.index[keyOf(entity)]
	if !ok {
		u.track(entity, stateDeleted, entity.TrackedValues().Clone())
		return
	}
	if te.state == stateAdded {
		u.untrack(keyOf(entity))
		return
	}
	te.state = stateDeleted
}

// Find returns the tracked entity or loads and attaches it.
func (u *UnitOfWork) Find(ctx context.Context, kind tracking.Kind, id string) (tracking.Entity, error) {
	if te, ok := u.index[entryKey{kind: kind, id: id}]; ok {
		if te.state == stateDeleted {
			return nil, ErrNotFound
		}
		return te.entity, nil
	}
	var entity tracking.Entity
	err := u.read(ctx, func(tx Tx) error {
		loaded, err := tx.Load(ctx, kind, id)
		entity = loaded
		return err
	})
	if err != nil {
		return nil, err
	}
	u.track(entity, stateUnchanged, entity.TrackedValues().Clone())
	return entity, nil
}

// FindAs is Find with the result asserted to T.
func FindAs[T tracking.Entity](ctx context.Context, u *UnitOfWork, kind tracking.Kind, id string) (T, error) {
	var zero T
	entity, err := u.Find(ctx, kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := entity.(T)
	if !ok {
		return zero, fmt.Errorf("find %s %s: unexpected entity type %T", kind, id, entity)
	}
	return typed, nil
}

// Count counts entities matching q as they would be after this unit of work commits.
func (u *UnitOfWork) Count(ctx context.Context, q tracking.Query) (int, error) {
	var n int
	err := u.read(ctx, func(tx Tx) error {
		persisted, err := tx.Count(ctx, q)
		n = persisted
		return err
	})
	if err != nil {
		return 0, err
	}
	for _, te := range u.entries {
		if te.entity.EntityKind() != q.Kind {
			continue
		}
		current := matches(te.entity.TrackedValues(), q)
		switch te.state {
		case stateAdded:
			if current {
				n++
			}
		case stateDeleted:
			if matches(te.original, q) {
				n--
			}
		default:
			original := matches(te.original, q)
			if original && !current {
				n--
			}
			if !original && current {
				n++
			}
		}
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// Any reports whether Count(q) is positive.
func (u *UnitOfWork) Any(ctx context.Context, q tracking.Query) (bool, error) {
	n, err := u.Count(ctx, q)
	return n > 0, err
}

// Entries returns the pending changes.
func (u *UnitOfWork) Entries() []tracking.Entry {
	return u.pending()
}

// HasChanges reports whether SaveChanges would write anything.
func (u *UnitOfWork) HasChanges() bool {
	return len(u.pending()) > 0
}

// Clear forgets every tracked entity.
func (u *UnitOfWork) Clear() {
	u.entries = nil
	u.index = make(map[entryKey]*trackedEntry)
}

// SaveChangesSync always fails. Commits must be cancellable, so SaveChanges is the only path.
func (u *UnitOfWork) SaveChangesSync() (int, error) {
	return 0, ErrSynchronousSave
}

// SaveChanges writes every pending change in one transaction and returns the number of entities written,
// including those written by saves nested in the interceptor.
// A save issued while another save on this unit of work is in progress joins that save's transaction.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	changes := tracking.NewSnapshot(u.pending())
	if changes.IsEmpty() {
		return 0, nil
	}

	u.depth++
	defer func() { u.depth-- }()

	if u.tx != nil {
		return u.saveNested(ctx, changes)
	}
	return u.saveOuter(ctx, changes)
}

func (u *UnitOfWork) saveNested(ctx context.Context, changes tracking.Snapshot) (int, error) {
	if u.interceptor != nil {
		if err := u.interceptor.SavingChanges(ctx, u, changes); err != nil {
			return 0, err
		}
	}
	written := u.pending()
	if err := u.apply(ctx, u.tx, written); err != nil {
		return 0, err
	}
	u.accept(written)
	u.nested += len(written)
	return len(written), nil
}

func (u *UnitOfWork) saveOuter(ctx context.Context, changes tracking.Snapshot) (int, error) {
	top := u.depth == 1
	backup := u.cloneTracking()

	tx, err := u.store.Begin(ctx)
	if err != nil {
		return 0, u.fail(ctx, top, fmt.Errorf("begin transaction: %w", err))
	}
	u.tx = tx
	u.nested = 0
	written, err := u.validateAndApply(ctx, tx, changes)
	u.tx = nil
	total := len(written) + u.nested
	u.nested = 0
	if err == nil {
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit transaction: %w", cerr)
		}
	}
	if err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		u.restore(backup)
		return 0, u.fail(ctx, top, err)
	}

	u.accept(written)
	if top && u.interceptor != nil {
		if perr := u.interceptor.SavedChanges(ctx, u, changes); perr != nil {
			return total, &PostCommitError{Err: perr}
		}
	}
	return total, nil
}

func (u *UnitOfWork) validateAndApply(ctx context.Context, tx Tx, changes tracking.Snapshot) ([]tracking.Entry, error) {
	if u.interceptor != nil {
		if err := u.interceptor.SavingChanges(ctx, u, changes); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Re-read pending state: saves nested in a validator may already have written part of it.
	written := u.pending()
	if err := u.apply(ctx, tx, written); err != nil {
		return nil, err
	}
	return written, nil
}

func (u *UnitOfWork) fail(ctx context.Context, top bool, err error) error {
	if top && u.interceptor != nil {
		u.interceptor.SaveChangesFailed(ctx, u, err)
	}
	return err
}

func operationPhase(op tracking.Operation) int {
	switch op {
	case tracking.Insert:
		return 0
	case tracking.Update:
		return 1
	default:
		return 2
	}
}

// apply writes inserts parents first, then updates, then deletes children first.
func (u *UnitOfWork) apply(ctx context.Context, tx Tx, entries []tracking.Entry) error {
	rank := make(map[tracking.Kind]int)
	for i, kind := range u.store.Kinds() {
		rank[kind] = i
	}
	ordered := append([]tracking.Entry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		pa, pb := operationPhase(a.Operation), operationPhase(b.Operation)
		if pa != pb {
			return pa < pb
		}
		if a.Operation == tracking.Delete {
			return rank[a.Kind()] > rank[b.Kind()]
		}
		return rank[a.Kind()] < rank[b.Kind()]
	})

	for _, entry := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch entry.Operation {
		case tracking.Insert:
			err = tx.Insert(ctx, entry.Entity)
		case tracking.Update:
			err = tx.Update(ctx, entry.Entity)
		case tracking.Delete:
			err = tx.Delete(ctx, entry.Entity)
		}
		if err != nil {
			return fmt.Errorf("%s %s %s: %w", entry.Operation, entry.Kind(), entry.ID(), err)
		}
	}
	return nil
}

func (u *UnitOfWork) pending() []tracking.Entry {
	var out []tracking.Entry
	for _, te := range u.entries {
		switch te.state {
		case stateAdded:
			out = append(out, tracking.NewEntry(te.entity, tracking.Insert, nil))
		case stateDeleted:
			out = append(out, tracking.NewEntry(te.entity, tracking.Delete, te.original))
		default:
			entry := tracking.NewEntry(te.entity, tracking.Update, te.original)
			if entry.HasModifications() {
				out = append(out, entry)
			}
		}
	}
	return out
}

func (u *UnitOfWork) accept(written []tracking.Entry) {
	for _, entry := range written {
		key := keyOf(entry.Entity)
		te, ok := u.index[key]
		if !ok {
			continue
		}
		if entry.Operation == tracking.Delete {
			u.untrack(key)
			continue
		}
		te.state = stateUnchanged
		te.original = te.entity.TrackedValues().Clone()
	}
}

func (u *UnitOfWork) read(ctx context.Context, fn func(Tx) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()
	return fn(tx)
}

func (u *UnitOfWork) track(entity tracking.Entity, state entryState, original tracking.Values) {
	te := &trackedEntry{entity: entity, state: state, original: original}
	u.entries = append(u.entries, te)
	u.index[keyOf(entity)] = te
}

func (u *UnitOfWork) untrack(key entryKey) {
	delete(u.index, key)
	for i, te := range u.entries {
		if keyOf(te.entity) == key {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			return
		}
	}
}

func (u *UnitOfWork) cloneTracking() []trackedEntry {
	out := make([]trackedEntry, len(u.entries))
	for i, te := range u.entries {
		out[i] = trackedEntry{entity: te.entity, state: te.state, original: te.original.Clone()}
	}
	return out
}

func (u *UnitOfWork) restore(backup []trackedEntry) {
	u.Clear()
	for i := range backup {
		te := backup[i]
		u.track(te.entity, te.state, te.original)
	}
}

func matches(values tracking.Values, q tracking.Query) bool {
	v, ok := values[q.Field].(string)
	return ok && v == q.Value
}
