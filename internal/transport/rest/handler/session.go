package handler

import (
	"net/http"

	"molehunt/internal/game"
)

// SessionHandler exposes the host display's read-only session view
type SessionHandler struct {
	engine *game.Engine
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(engine *game.Engine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

// Get handles GET /v1/session. The snapshot is projected for the public
// viewer, so it carries no round secrets regardless of who asks.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot(game.PublicViewer))
}
