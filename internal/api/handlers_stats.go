package api

import (
	"net/http"
)

func (s *Server) handleImportStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.rows.Count(r.Context())
	if err != nil {
		jsonError(w, "failed to count rows: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"imports":     s.orchestrator.Stats(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"rows":        count,
	})
}
