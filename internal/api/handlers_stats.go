package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleSynthStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "internal", "synthesis stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": s.cfg.Model,
		"stats": s.stats.Snapshot(),
	})
}
