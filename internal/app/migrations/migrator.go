package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrator applies plain SQL migration files against the database, tracking
// applied versions in a schema_migrations table. Version is the filename
// prefix before the first underscore ("001_init.sql" is version "001").
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

// MigrateFromDirectory applies every .sql file in dirPath in lexical order.
func (m *Migrator) MigrateFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.MigrateFromFile(filepath.Join(dirPath, name)); err != nil {
			return err
		}
	}
	return nil
}

// MigrateFromFile applies a single migration file unless its version has
// already been recorded. The statements and the version record commit in one
// transaction.
func (m *Migrator) MigrateFromFile(filePath string) error {
	ctx := context.Background()

	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	name := filepath.Base(filePath)
	version := strings.SplitN(name, "_", 2)[0]

	applied, err := m.versionApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		log.Debug().Str("migration", name).Msg("Migration already applied, skipping")
		return nil
	}

	statements, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read migration file %s: %w", name, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(statements)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}

	log.Info().Str("migration", name).Msg("Migration applied")
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) versionApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration version %s: %w", version, err)
	}
	return exists, nil
}
