package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type ruleView struct {
	ID        string `json:"id"`
	Keyword   string `json:"keyword"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
}

func newRuleView(rule storage.CategoryRule) ruleView {
	return ruleView{
		ID:        rule.ID(),
		Keyword:   rule.Keyword(),
		Category:  rule.Category(),
		CreatedAt: rule.CreatedAt().UTC().Format(time.RFC3339),
	}
}

func (s *server) listRulesHandler(w http.ResponseWriter, r *http.Request) {
	ruleList, err := s.engine.Rules(r.Context())
	if err != nil {
		s.logger.Error("listing rules", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}

	views := make([]ruleView, 0, len(ruleList))
	for _, rule := range ruleList {
		views = append(views, newRuleView(rule))
	}

	s.writeJSON(w, http.StatusOK, views)
}

type createRuleRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

func (s *server) createRuleHandler(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := s.engine.CreateRule(r.Context(), req.Keyword, req.Category)
	if err != nil {
		var validation *rules.ValidationError
		if errors.As(err, &validation) {
			s.writeError(w, http.StatusBadRequest, validation.Error())
			return
		}

		s.logger.Error("creating rule", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}

	// New rules change how future stats bucket uncategorized spending.
	s.cache.Invalidate()

	s.writeJSON(w, http.StatusCreated, newRuleView(rule))
}

func (s *server) deleteRuleHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.engine.DeleteRule(r.Context(), id); err != nil {
		s.logger.Error("deleting rule", "id", id, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}

	s.cache.Invalidate()

	w.WriteHeader(http.StatusNoContent)
}

type suggestKeywordsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *server) suggestKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	merchant := r.URL.Query().Get("merchant")
	if merchant == "" {
		s.writeError(w, http.StatusBadRequest, "merchant is required")
		return
	}

	s.writeJSON(w, http.StatusOK, suggestKeywordsResponse{
		Suggestions: rules.SuggestKeywords(merchant),
	})
}
