package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/airjuggler/internal/app"
	"github.com/ayusman/airjuggler/internal/tracking"
)

// GameService starts sessions and reports their state. *app.App satisfies it.
type GameService interface {
	StartGame(ctx context.Context) error
	Status() app.Status
}

// GameHandler handles /api/game.
type GameHandler struct {
	game GameService
}

// NewGameHandler creates a new GameHandler for the given service.
func NewGameHandler(g GameService) *GameHandler {
	return &GameHandler{game: g}
}

// ServeHTTP implements the http.Handler interface.
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.game.Status())
	case http.MethodPost:
		h.start(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// start handles POST /api/game and begins a new session.
func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	err := h.game.StartGame(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, h.game.Status())
	case errors.Is(err, app.ErrSessionActive):
		writeError(w, http.StatusConflict, app.ErrSessionActive.Error())
	case errors.Is(err, tracking.ErrSetup):
		writeError(w, http.StatusServiceUnavailable, tracking.ErrSetup.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Shutting down")
	default:
		log.Printf("Failed to start game: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to start game")
	}
}
