package storage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/logger"
)

// NotFoundError reports a lookup or update that targeted a missing record.
type NotFoundError struct{}

func (e *NotFoundError) Error() string {
	return "record not found"
}

// StorageError wraps a persistence failure so callers can distinguish it
// from domain errors. The underlying error is preserved for logging.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type SourceType string

const (
	SourcePayPay SourceType = "paypay"
	SourceSMBC   SourceType = "smbc"
	SourceManual SourceType = "manual"
)

// Uncategorized is the sentinel category for transactions that have not
// been assigned one. An empty stored category reads back as this value.
const Uncategorized = "Uncategorized"

// Transaction is an imported spending record. Every field is an immutable
// import fact except the category, which is only mutated through
// Storage.UpdateTransactionCategory.
type Transaction interface {
	ID() string
	Date() time.Time
	Amount() int64
	Merchant() string
	Description() string
	Category() string
	Source() string
	SourceType() SourceType
	RecordHash() string
	CreatedAt() time.Time
}

type transaction struct {
	id          string
	date        time.Time
	amount      int64
	merchant    string
	description string
	category    string
	source      string
	sourceType  SourceType
	recordHash  string
	createdAt   time.Time
}

func NewTransaction(
	id string,
	date time.Time,
	amount int64,
	merchant, description, category, source string,
	sourceType SourceType,
	recordHash string,
	createdAt time.Time,
) Transaction {
	return &transaction{
		id:          id,
		date:        date,
		amount:      amount,
		merchant:    merchant,
		description: description,
		category:    category,
		source:      source,
		sourceType:  sourceType,
		recordHash:  recordHash,
		createdAt:   createdAt,
	}
}

func (t *transaction) ID() string {
	return t.id
}

func (t *transaction) Date() time.Time {
	return t.date
}

func (t *transaction) Amount() int64 {
	return t.amount
}

func (t *transaction) Merchant() string {
	return t.merchant
}

func (t *transaction) Description() string {
	return t.description
}

func (t *transaction) Category() string {
	if t.category == "" {
		return Uncategorized
	}
	return t.category
}

func (t *transaction) Source() string {
	return t.source
}

func (t *transaction) SourceType() SourceType {
	return t.sourceType
}

func (t *transaction) RecordHash() string {
	return t.recordHash
}

func (t *transaction) CreatedAt() time.Time {
	return t.createdAt
}

// RecordHash derives the import dedup key from the immutable transaction
// facts. Two records with the same date, amount, merchant, description and
// source are considered the same import fact.
func RecordHash(date time.Time, amount int64, merchant, description, source string) string {
	payload := fmt.Sprintf(
		"%s|%d|%s|%s|%s",
		date.Format(time.DateOnly),
		amount,
		merchant,
		description,
		source,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(payload)))
}

// CategoryRule maps a keyword to a category. Rules are never mutated in
// place; changing one means deleting and recreating it.
type CategoryRule interface {
	ID() string
	Keyword() string
	Category() string
	CreatedAt() time.Time
}

type categoryRule struct {
	id        string
	keyword   string
	category  string
	createdAt time.Time
}

func NewCategoryRule(id, keyword, category string, createdAt time.Time) CategoryRule {
	return &categoryRule{
		id:        id,
		keyword:   keyword,
		category:  category,
		createdAt: createdAt,
	}
}

func (r *categoryRule) ID() string {
	return r.id
}

func (r *categoryRule) Keyword() string {
	return r.keyword
}

func (r *categoryRule) Category() string {
	return r.category
}

func (r *categoryRule) CreatedAt() time.Time {
	return r.createdAt
}

type Storage interface {
	// Migrations
	ApplyMigrations(ctx context.Context, logger *logger.Logger) error

	// Transactions
	ListTransactions(ctx context.Context, offset, limit int) ([]Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (Transaction, error)
	TransactionsInRange(ctx context.Context, start, end time.Time) ([]Transaction, error)
	InsertTransactions(ctx context.Context, transactions []Transaction) (int64, error)
	UpdateTransactionCategory(ctx context.Context, id, category string) (Transaction, error)

	// Category rules. ListRules returns rules in creation order; the rule
	// engine depends on that order for first-match precedence.
	CreateRule(ctx context.Context, keyword, category string) (CategoryRule, error)
	ListRules(ctx context.Context) ([]CategoryRule, error)
	DeleteRule(ctx context.Context, id string) error

	// Resource managment
	Close() error
}
