package api

import (
	"net/http"

	"github.com/seenimoa/stockchat/internal/config"
)

// handleGetConfig returns the running configuration. The Gemini key is
// excluded by its json:"-" tag.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.cfg,
	})
}

// handleGetConfigKeys returns the masked status of every secret.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
