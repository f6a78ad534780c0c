package server

import (
	"encoding/json"
	"net/http"

	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/stats"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type server struct {
	storage storage.Storage
	engine  *rules.Engine
	cache   *stats.Cache
	logger  *logger.Logger
}

// New wires the JSON API. The stats cache is owned here: every write that
// can change an aggregate invalidates it.
func New(store storage.Storage, engine *rules.Engine, logger *logger.Logger) http.Handler {
	s := &server{
		storage: store,
		engine:  engine,
		cache:   stats.NewCache(),
		logger:  logger,
	}

	mux := &http.ServeMux{}

	mux.HandleFunc("GET /api/transactions", s.listTransactionsHandler)
	mux.HandleFunc("POST /api/transactions", s.createTransactionHandler)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.updateCategoryHandler)
	mux.HandleFunc("GET /api/transactions/stats", s.statsHandler)

	mux.HandleFunc("GET /api/transactions/category-rules", s.listRulesHandler)
	mux.HandleFunc("POST /api/transactions/category-rules", s.createRuleHandler)
	mux.HandleFunc("DELETE /api/transactions/category-rules/{id}", s.deleteRuleHandler)
	mux.HandleFunc("GET /api/transactions/category-rules/suggest", s.suggestKeywordsHandler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return loggingMiddleware(logger, mux)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", "error", err.Error())
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
