package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	price := s.worker.LastPrice()
	status, err := s.session.Status(r.Context(), price)
	if err != nil {
		s.logger.Error("Failed to build status", zap.Error(err))
		http.Error(w, "Failed to build status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, status)
}

// handleHistory serves the in-memory session history, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.session.History())
}

// handleTrades serves the SQLite mirror, newest first, for dashboards that
// want a bounded page instead of the full history.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	trades, err := s.tradeRepo.ListTradeRecords(r.Context(), s.session.Symbol(), limit)
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, trades)
}

func (s *Server) handleWinRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]float64{"win_rate": s.session.WinRate()})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
