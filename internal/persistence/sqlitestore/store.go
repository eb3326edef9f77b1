// Package sqlitestore provides a SQLite-backed contest store for local runs and tests.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/persistence/sqlitestore/migrations"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// Store persists contests, contestants and users in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var tables = map[tracking.Kind]string{
	domain.KindUser:       "users",
	domain.KindContest:    "contests",
	domain.KindContestant: "contestants",
}

// countable lists the columns Count may filter on, per kind.
var countable = map[tracking.Kind]map[string]string{
	domain.KindContestant: {
		domain.ContestantFieldContestID: "contest_id",
		domain.ContestantFieldUserID:    "user_id",
	},
	domain.KindContest: {
		domain.ContestFieldStatus: "status",
	},
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func applyMigrations(ctx context.Context, sqlDB *sql.DB, logger *zap.Logger) error {
	list, err := persistence.LoadMigrations(migrations.FS)
	if err != nil {
		return err
	}
	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+persistence.MigrationTable+` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range list {
		var found int
		err := sqlDB.QueryRowContext(ctx,
			"SELECT 1 FROM "+persistence.MigrationTable+" WHERE name = ?", m.Name,
		).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}

		tx, err := sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration transaction %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO "+persistence.MigrationTable+" (name, applied_at) VALUES (?, ?)",
			m.Name, toMillis(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
		logger.Info("applied migration", zap.String("file", m.Name))
	}
	return nil
}

// Begin opens a transaction.
func (s *Store) Begin(ctx context.Context) (persistence.Tx, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx}, nil
}

// Kinds returns the entity kinds in foreign key order.
func (s *Store) Kinds() []tracking.Kind {
	return domain.Kinds
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) Load(ctx context.Context, kind tracking.Kind, id string) (tracking.Entity, error) {
	var (
		entity tracking.Entity
		err    error
	)
	switch kind {
	case domain.KindContest:
		var (
			c        domain.Contest
			lockDate int64
			status   string
		)
		err = t.tx.QueryRowContext(ctx,
			`SELECT id, name, lock_date, status FROM contests WHERE id = ?`, id,
		).Scan(&c.ID, &c.Name, &lockDate, &status)
		c.LockDate = fromMillis(lockDate)
		c.Status = domain.ContestStatus(status)
		entity = &c
	case domain.KindContestant:
		var c domain.Contestant
		err = t.tx.QueryRowContext(ctx,
			`SELECT id, user_id, contest_id FROM contestants WHERE id = ?`, id,
		).Scan(&c.ID, &c.UserID, &c.ContestID)
		entity = &c
	case domain.KindUser:
		var u domain.User
		err = t.tx.QueryRowContext(ctx,
			`SELECT id, username FROM users WHERE id = ?`, id,
		).Scan(&u.ID, &u.Username)
		entity = &u
	default:
		return nil, fmt.Errorf("load: unknown kind %q", kind)
	}
	if errors.Is(err, sql.ErrNoRows) {
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
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tables[q.Kind]+" WHERE "+column+" = ?", q.Value,
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
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO contests (id, name, lock_date, status) VALUES (?, ?, ?, ?)`,
			e.ID, e.Name, toMillis(e.LockDate), string(e.Status))
	case *domain.Contestant:
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO contestants (id, user_id, contest_id) VALUES (?, ?, ?)`,
			e.ID, e.UserID, e.ContestID)
	case *domain.User:
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO users (id, username) VALUES (?, ?)`, e.ID, e.Username)
	default:
		return fmt.Errorf("insert: unsupported entity %T", entity)
	}
	return mapError(err)
}

func (t *storeTx) Update(ctx context.Context, entity tracking.Entity) error {
	var (
		res sql.Result
		err error
	)
	switch e := entity.(type) {
	case *domain.Contest:
		res, err = t.tx.ExecContext(ctx,
			`UPDATE contests SET name = ?, lock_date = ?, status = ? WHERE id = ?`,
			e.Name, toMillis(e.LockDate), string(e.Status), e.ID)
	case *domain.Contestant:
		res, err = t.tx.ExecContext(ctx,
			`UPDATE contestants SET user_id = ?, contest_id = ? WHERE id = ?`,
			e.UserID, e.ContestID, e.ID)
	case *domain.User:
		res, err = t.tx.ExecContext(ctx,
			`UPDATE users SET username = ? WHERE id = ?`, e.Username, e.ID)
	default:
		return fmt.Errorf("update: unsupported entity %T", entity)
	}
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (t *storeTx) Delete(ctx context.Context, entity tracking.Entity) error {
	table, ok := tables[entity.EntityKind()]
	if !ok {
		return fmt.Errorf("delete: unsupported entity %T", entity)
	}
	res, err := t.tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", entity.EntityID())
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (t *storeTx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *storeTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT,
			sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3lib.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", persistence.ErrConstraint, err)
		}
	}
	return err
}

var _ persistence.Store = (*Store)(nil)
