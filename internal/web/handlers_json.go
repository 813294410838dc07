package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const defaultHistoryLimit = 100

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func historyLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}

func (s *Server) handleNarrativesJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.narratives.Dashboard(r.Context()))
}

func (s *Server) handleNarrativesRefresh(w http.ResponseWriter, r *http.Request) {
	s.narratives.Refresh()
	if r.FormValue("redirect") == "/" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.writeJSON(w, map[string]string{"status": "refreshed"})
}

func (s *Server) handleSnapshotJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.tracker.Snapshot(r.Context()))
}

func (s *Server) handleNarrativeHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	records, err := s.archive.ListNarrativeRecords(r.Context(), historyLimit(r))
	if err != nil {
		s.logger.Error("Failed to list narrative history", zap.Error(err))
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handleDerivativesHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	records, err := s.archive.ListDerivativesRecords(r.Context(), historyLimit(r))
	if err != nil {
		s.logger.Error("Failed to list derivatives history", zap.Error(err))
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, records)
}
