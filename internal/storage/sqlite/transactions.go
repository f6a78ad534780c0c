package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

const transactionColumns = "id, date, amount, merchant, description, category, source, source_type, record_hash, created_at"

func (s *sqliteStorage) ListTransactions(ctx context.Context, offset, limit int) ([]storage.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date DESC, id ASC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return []storage.Transaction{}, &storage.StorageError{Err: err}
	}

	return s.collectTransactions(rows)
}

func (s *sqliteStorage) GetTransactionByID(ctx context.Context, id string) (storage.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	return transactionFromRow(row.Scan)
}

func (s *sqliteStorage) TransactionsInRange(ctx context.Context, start, end time.Time) ([]storage.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions"
	clauses := []string{}
	args := []any{}

	if !start.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, start.Unix())
	}

	if !end.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, end.Unix())
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	query += " ORDER BY date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return []storage.Transaction{}, &storage.StorageError{Err: err}
	}

	return s.collectTransactions(rows)
}

func (s *sqliteStorage) InsertTransactions(ctx context.Context, transactions []storage.Transaction) (int64, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &storage.StorageError{Err: err}
	}

	var inserted int64
	for _, t := range transactions {
		result, execErr := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO transactions(`+transactionColumns+`)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID(), t.Date().Unix(), t.Amount(), t.Merchant(), t.Description(),
			rawCategory(t), t.Source(), string(t.SourceType()), t.RecordHash(),
			t.CreatedAt().Unix())
		if execErr != nil {
			_ = tx.Rollback()
			return 0, &storage.StorageError{Err: execErr}
		}

		affected, affectedErr := result.RowsAffected()
		if affectedErr != nil {
			_ = tx.Rollback()
			return 0, &storage.StorageError{Err: affectedErr}
		}
		inserted += affected
	}

	if commitErr := tx.Commit(); commitErr != nil {
		_ = tx.Rollback()
		return 0, &storage.StorageError{Err: commitErr}
	}

	return inserted, nil
}

func (s *sqliteStorage) UpdateTransactionCategory(ctx context.Context, id, category string) (storage.Transaction, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET category = ? WHERE id = ?", category, id)
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	if affected == 0 {
		return nil, &storage.NotFoundError{}
	}

	return s.GetTransactionByID(ctx, id)
}

func (s *sqliteStorage) collectTransactions(rows *sql.Rows) ([]storage.Transaction, error) {
	if rows.Err() != nil {
		return []storage.Transaction{}, &storage.StorageError{Err: rows.Err()}
	}

	defer rows.Close()

	transactions := []storage.Transaction{}

	for rows.Next() {
		t, transactionErr := transactionFromRow(rows.Scan)
		if transactionErr != nil {
			return []storage.Transaction{}, transactionErr
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

func transactionFromRow(scan func(dest ...any) error) (storage.Transaction, error) {
	var id string
	var date int64
	var amount int64
	var merchant string
	var description string
	var category string
	var source string
	var sourceType string
	var recordHash string
	var createdAt int64

	if err := scan(&id, &date, &amount, &merchant, &description, &category,
		&source, &sourceType, &recordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storage.NotFoundError{}
		}
		return nil, &storage.StorageError{Err: err}
	}

	return storage.NewTransaction(
		id,
		time.Unix(date, 0).UTC(),
		amount,
		merchant,
		description,
		category,
		source,
		storage.SourceType(sourceType),
		recordHash,
		time.Unix(createdAt, 0).UTC(),
	), nil
}

// rawCategory stores the empty string rather than the Uncategorized
// sentinel so the default stays a read-side concern.
func rawCategory(t storage.Transaction) string {
	if t.Category() == storage.Uncategorized {
		return ""
	}
	return t.Category()
}
