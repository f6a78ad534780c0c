package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				date INTEGER NOT NULL,
				amount INTEGER NOT NULL,
				merchant TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL,
				source_type TEXT NOT NULL,
				record_hash TEXT NOT NULL UNIQUE,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS category_rules (
				id TEXT PRIMARY KEY,
				keyword TEXT NOT NULL,
				category TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
		},
	},
}

func (s *sqliteStorage) ApplyMigrations(ctx context.Context, log *logger.Logger) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return &storage.StorageError{Err: fmt.Errorf("failed to create migrations table: %w", err)}
	}

	var current int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if scanErr := row.Scan(&current); scanErr != nil {
		return &storage.StorageError{Err: scanErr}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return &storage.StorageError{Err: txErr}
		}

		for _, statement := range m.statements {
			if _, execErr := tx.ExecContext(ctx, statement); execErr != nil {
				_ = tx.Rollback()
				return &storage.StorageError{
					Err: fmt.Errorf("migration %d failed: %w", m.version, execErr),
				}
			}
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)",
			m.version, time.Now().Unix())
		if err != nil {
			_ = tx.Rollback()
			return &storage.StorageError{Err: err}
		}

		if commitErr := tx.Commit(); commitErr != nil {
			_ = tx.Rollback()
			return &storage.StorageError{Err: commitErr}
		}

		log.Info("applied migration", "version", m.version)
	}

	return nil
}
