package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type transactionView struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Source      string `json:"source"`
	SourceType  string `json:"source_type"`
	CreatedAt   string `json:"created_at"`
}

func newTransactionView(t storage.Transaction) transactionView {
	return transactionView{
		ID:          t.ID(),
		Date:        t.Date().Format(time.DateOnly),
		Amount:      t.Amount(),
		Merchant:    t.Merchant(),
		Description: t.Description(),
		Category:    t.Category(),
		Source:      t.Source(),
		SourceType:  string(t.SourceType()),
		CreatedAt:   t.CreatedAt().UTC().Format(time.RFC3339),
	}
}

func transactionViews(transactions []storage.Transaction) []transactionView {
	views := make([]transactionView, 0, len(transactions))
	for _, t := range transactions {
		views = append(views, newTransactionView(t))
	}
	return views
}

func (s *server) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	transactions, err := s.storage.ListTransactions(r.Context(), skip, limit)
	if err != nil {
		s.logger.Error("listing transactions", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	s.writeJSON(w, http.StatusOK, transactionViews(transactions))
}

type createTransactionRequest struct {
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Source      string `json:"source"`
}

func (s *server) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.ParseInLocation(time.DateOnly, req.Date, time.UTC)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	if req.Merchant == "" && req.Description == "" {
		s.writeError(w, http.StatusBadRequest, "merchant or description is required")
		return
	}

	source := req.Source
	if source == "" {
		source = "Manual"
	}

	transaction := storage.NewTransaction(
		uuid.NewString(),
		date,
		req.Amount,
		req.Merchant,
		req.Description,
		req.Category,
		source,
		storage.SourceManual,
		storage.RecordHash(date, req.Amount, req.Merchant, req.Description, source),
		time.Now().UTC(),
	)

	if req.Category == "" {
		category, suggestErr := s.engine.SuggestCategory(r.Context(), transaction)
		if suggestErr != nil {
			s.logger.Error("suggesting category", "error", suggestErr.Error())
		}
		if category != "" {
			transaction = storage.NewTransaction(
				transaction.ID(),
				transaction.Date(),
				transaction.Amount(),
				transaction.Merchant(),
				transaction.Description(),
				category,
				transaction.Source(),
				transaction.SourceType(),
				transaction.RecordHash(),
				transaction.CreatedAt(),
			)
		}
	}

	inserted, err := s.storage.InsertTransactions(r.Context(), []storage.Transaction{transaction})
	if err != nil {
		s.logger.Error("inserting transaction", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	if inserted == 0 {
		s.writeError(w, http.StatusConflict, "transaction already exists")
		return
	}

	s.cache.Invalidate()

	s.writeJSON(w, http.StatusCreated, newTransactionView(transaction))
}

type updateCategoryRequest struct {
	Category string `json:"category"`
}

func (s *server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Category == "" {
		s.writeError(w, http.StatusBadRequest, "category must not be empty")
		return
	}

	transaction, err := s.storage.UpdateTransactionCategory(r.Context(), id, req.Category)
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			s.writeError(w, http.StatusNotFound, "transaction not found")
			return
		}

		s.logger.Error("updating category", "id", id, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	s.cache.Invalidate()

	s.writeJSON(w, http.StatusOK, newTransactionView(transaction))
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid " + name)
	}

	return value, nil
}
