// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/lifecycle"
	"github.com/spec-kit/contest-service/internal/observability"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/persistence/sqlitestore"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// Epoch is the default time of a test Clock.
var Epoch = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

// Clock is a manually driven clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock reading now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// OpenStore opens a migrated SQLite store in a temp dir, closed on cleanup.
func OpenStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contests.db")
	store, err := sqlitestore.Open(context.Background(), path, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Harness wires a store, dispatcher and unit of work factory the way the service does.
type Harness struct {
	Store         *sqlitestore.Store
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         *Clock
	NewUnitOfWork lifecycle.UnitOfWorkFactory
}

// NewHarness builds a harness with no validators registered.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	store := OpenStore(t)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	return &Harness{
		Store:         store,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		Clock:         NewClock(Epoch),
		NewUnitOfWork: lifecycle.NewUnitOfWorkFactory(store, dispatcher, logger, metrics),
	}
}

// Seed writes entities without running validators.
func (h *Harness) Seed(t *testing.T, entities ...tracking.Entity) {
	t.Helper()
	uow := h.NewUnitOfWork()
	uow.SkipLifecycleValidation = true
	for _, entity := range entities {
		uow.Add(entity)
	}
	if _, err := uow.SaveChanges(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// Find loads an entity through a fresh unit of work.
func Find[T tracking.Entity](t *testing.T, h *Harness, kind tracking.Kind, id string) T {
	t.Helper()
	entity, err := persistence.FindAs[T](context.Background(), h.NewUnitOfWork(), kind, id)
	if err != nil {
		t.Fatalf("find %s %s: %v", kind, id, err)
	}
	return entity
}

// Exists reports whether the store holds the entity.
func Exists(t *testing.T, h *Harness, kind tracking.Kind, id string) bool {
	t.Helper()
	_, err := h.NewUnitOfWork().Find(context.Background(), kind, id)
	if err == nil {
		return true
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("find %s %s: %v", kind, id, err)
	}
	return false
}
