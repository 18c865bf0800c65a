package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration. Migrations cover the
// bookkeeping tables only; deck tables evolve through AppendFile.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Ingest run log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS ingest_runs (
					id TEXT PRIMARY KEY,
					file_desc TEXT NOT NULL,
					flavor TEXT NOT NULL,
					env TEXT NOT NULL,
					status TEXT NOT NULL CHECK(status IN ('running', 'succeeded', 'failed')),
					wide_rows INTEGER NOT NULL DEFAULT 0,
					long_rows INTEGER NOT NULL DEFAULT 0,
					error TEXT,
					started_at DATETIME NOT NULL,
					finished_at DATETIME
				)`,
				`CREATE INDEX idx_ingest_runs_file ON ingest_runs(file_desc)`,
				`CREATE INDEX idx_ingest_runs_started ON ingest_runs(started_at)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Reconciliation log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS reconciliation_log (
					id TEXT PRIMARY KEY,
					batch_id TEXT NOT NULL,
					table_name TEXT NOT NULL,
					match_column TEXT NOT NULL,
					match_value TEXT NOT NULL,
					rows_deleted INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL CHECK(status IN ('succeeded', 'failed')),
					error TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_reconciliation_batch ON reconciliation_log(batch_id)`,
				`CREATE INDEX idx_reconciliation_value ON reconciliation_log(match_value)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     3,
		Description: "Index run log by flavor and status",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_ingest_runs_flavor_status ON ingest_runs(flavor, status)`,
			})
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion returns the database's current migration version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
