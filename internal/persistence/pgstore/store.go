// Package pgstore provides the Postgres-backed contest store.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// SQLSTATE codes mapped to persistence.ErrConstraint.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var tables = map[tracking.Kind]string{
	domain.KindUser:       "users",
	domain.KindContest:    "contests",
	domain.KindContestant: "contestants",
}

var countable = map[tracking.Kind]map[string]string{
	domain.KindContestant: {
		domain.ContestantFieldContestID: "contest_id",
		domain.ContestantFieldUserID:    "user_id",
	},
	domain.KindContest: {
		domain.ContestFieldStatus: "status",
	},
}

// Store runs unit of work transactions on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (persistence.Tx, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("postgres pool not configured")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx}, nil
}

func (s *Store) Kinds() []tracking.Kind {
	return domain.Kinds
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to persistence.Postgres.
func (s *Store) Close() error {
	return nil
}

type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) Load(ctx context.Context, kind tracking.Kind, id string) (tracking.Entity, error) {
	var (
		entity tracking.Entity
		err    error
	)
	switch kind {
	case domain.KindContest:
		var (
			c      domain.Contest
			status string
		)
		err = t.tx.QueryRow(ctx,
			`SELECT id, name, lock_date, status FROM contests WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.LockDate, &status)
		c.LockDate = c.LockDate.UTC()
		c.Status = domain.ContestStatus(status)
		entity = &c
	case domain.KindContestant:
		var c domain.Contestant
		err = t.tx.QueryRow(ctx,
			`SELECT id, user_id, contest_id FROM contestants WHERE id = $1`, id,
		).Scan(&c.ID, &c.UserID, &c.ContestID)
		entity = &c
	case domain.KindUser:
		var u domain.User
		err = t.tx.QueryRow(ctx,
			`SELECT id, username FROM users WHERE id = $1`, id,
		).Scan(&u.ID, &u.Username)
		entity = &u
	default:
		return nil, fmt.Errorf("load: unknown kind %q", kind)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, persistence.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return entity, nil
}

func (t *storeTx) Count(ctx context.Context, q tracking.Query) (int, error) {
	column, ok := countable[q.Kind][q.Field]
	if !ok {
		return 0, fmt.Errorf("count %s by %s: %w", q.Kind, q.Field, persistence.ErrUnsupportedQuery)
	}
	var n int
	err := t.tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM "+tables[q.Kind]+" WHERE "+column+" = $1", q.Value,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s by %s: %w", q.Kind, q.Field, err)
	}
	return n, nil
}

func (t *storeTx) Insert(ctx context.Context, entity tracking.Entity) error {
	var err error
	switch e := entity.(type) {
	case *domain.Contest:
		_, err = t.tx.Exec(ctx,
			`INSERT INTO contests (id, name, lock_date, status) VALUES ($1, $2, $3, $4)`,
			e.ID, e.Name, e.LockDate.UTC(), string(e.Status))
	case *domain.Contestant:
		_, err = t.tx.Exec(ctx,
			`INSERT INTO contestants (id, user_id, contest_id) VALUES ($1, $2, $3)`,
			e.ID, e.UserID, e.ContestID)
	case *domain.User:
		_, err = t.tx.Exec(ctx,
			`INSERT INTO users (id, username) VALUES ($1, $2)`, e.ID, e.Username)
	default:
		return fmt.Errorf("insert: unsupported entity %T", entity)
	}
	return mapError(err)
}

func (t *storeTx) Update(ctx context.Context, entity tracking.Entity) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	switch e := entity.(type) {
	case *domain.Contest:
		tag, err = t.tx.Exec(ctx,
			`UPDATE contests SET name = $2, lock_date = $3, status = $4 WHERE id = $1`,
			e.ID, e.Name, e.LockDate.UTC(), string(e.Status))
	case *domain.Contestant:
		tag, err = t.tx.Exec(ctx,
			`UPDATE contestants SET user_id = $2, contest_id = $3 WHERE id = $1`,
			e.ID, e.UserID, e.ContestID)
	case *domain.User:
		tag, err = t.tx.Exec(ctx,
			`UPDATE users SET username = $2 WHERE id = $1`, e.ID, e.Username)
	default:
		return fmt.Errorf("update: unsupported entity %T", entity)
	}
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (t *storeTx) Delete(ctx context.Context, entity tracking.Entity) error {
	table, ok := tables[entity.EntityKind()]
	if !ok {
		return fmt.Errorf("delete: unsupported entity %T", entity)
	}
	tag, err := t.tx.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", entity.EntityID())
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *storeTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", persistence.ErrConstraint, pgErr.Message)
		}
	}
	return err
}

var _ persistence.Store = (*Store)(nil)
