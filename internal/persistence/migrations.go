package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// MigrationTable records applied migration names.
const MigrationTable = "schema_migrations"

const (
	migrateUpMarker   = "-- +migrate Up"
	migrateDownMarker = "-- +migrate Down"
)

// Migration is one embedded SQL file reduced to its up section.
type Migration struct {
	Name string
	SQL  string
}

// LoadMigrations reads every .sql file at the root of fsys in name order.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	migrations := make([]Migration, 0, len(filenames))
	for _, name := range filenames {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		up := ExtractUpMigration(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}
		migrations = append(migrations, Migration{Name: name, SQL: up})
	}
	return migrations, nil
}

// ExtractUpMigration returns the SQL between the up and down markers.
// Files without markers are applied whole.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, migrateUpMarker)
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len(migrateUpMarker):]
	if downIdx := strings.Index(body, migrateDownMarker); downIdx != -1 {
		return body[:downIdx]
	}
	return body
}

// RunMigrations applies the embedded postgres migrations that have not run yet.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+MigrationTable+` (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+MigrationTable+` WHERE name = $1)`, m.Name,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if exists {
			continue
		}

		logger.Info("applying migration", zap.String("file", m.Name))
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+MigrationTable+` (name) VALUES ($1)`, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		applied++
	}

	logger.Info("migrations applied", zap.Int("count", applied), zap.Int("total", len(migrations)))
	return nil
}
