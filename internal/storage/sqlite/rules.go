package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

func (s *sqliteStorage) CreateRule(ctx context.Context, keyword, category string) (storage.CategoryRule, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO category_rules(id, keyword, category, created_at) VALUES(?, ?, ?, ?)",
		id, keyword, category, createdAt.Unix())
	if err != nil {
		return nil, &storage.StorageError{Err: err}
	}

	return storage.NewCategoryRule(id, keyword, category, createdAt.Truncate(time.Second)), nil
}

// ListRules returns rules in creation order. The rowid tiebreak keeps the
// order stable for rules created within the same second.
func (s *sqliteStorage) ListRules(ctx context.Context) ([]storage.CategoryRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, keyword, category, created_at FROM category_rules ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return []storage.CategoryRule{}, &storage.StorageError{Err: err}
	}

	if rows.Err() != nil {
		return []storage.CategoryRule{}, &storage.StorageError{Err: rows.Err()}
	}

	defer rows.Close()

	rules := []storage.CategoryRule{}

	for rows.Next() {
		rule, ruleErr := ruleFromRow(rows.Scan)
		if ruleErr != nil {
			return []storage.CategoryRule{}, ruleErr
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func (s *sqliteStorage) DeleteRule(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM category_rules WHERE id = ?", id)
	if err != nil {
		return &storage.StorageError{Err: err}
	}
	return nil
}

func ruleFromRow(scan func(dest ...any) error) (storage.CategoryRule, error) {
	var id, keyword, category string
	var createdAt int64

	if err := scan(&id, &keyword, &category, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storage.NotFoundError{}
		}
		return nil, &storage.StorageError{Err: err}
	}

	return storage.NewCategoryRule(id, keyword, category, time.Unix(createdAt, 0).UTC()), nil
}
