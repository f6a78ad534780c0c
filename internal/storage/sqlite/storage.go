package sqlite

import (
	"context"
	"database/sql"

	// import sqlite driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type sqliteStorage struct {
	db *sql.DB
}

func New(source string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", source)
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	ctx := context.Background()

	// Enable foreign key constraints
	_, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	_, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
