package server

import (
	"net/http"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/stats"
)

func (s *server) statsHandler(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start_date")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
		return
	}

	end, err := queryDate(r, "end_date")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "end_date must be formatted as YYYY-MM-DD")
		return
	}

	key := stats.Key(start, end)
	if cached, ok := s.cache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	transactions, err := s.storage.TransactionsInRange(r.Context(), start, end)
	if err != nil {
		s.logger.Error("fetching transactions for stats", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	dashboard := stats.Compute(transactions, start, end, stats.DefaultTopMerchants)
	s.cache.Put(key, dashboard)

	s.writeJSON(w, http.StatusOK, dashboard)
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	return time.ParseInLocation(time.DateOnly, raw, time.UTC)
}
