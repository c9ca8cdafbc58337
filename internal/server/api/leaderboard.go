package api

import (
	"net/http"

	"github.com/ayusman/airjuggler/internal/leaderboard"
)

// Board lists and clears best scores. *leaderboard.Board satisfies it.
type Board interface {
	Load() []leaderboard.Entry
	Clear() error
}

// LeaderboardHandler handles /api/leaderboard.
type LeaderboardHandler struct {
	board Board
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(b Board) *LeaderboardHandler {
	return &LeaderboardHandler{board: b}
}

type leaderboardResponse struct {
	Entries []rankedEntry `json:"entries"`
}

type rankedEntry struct {
	Rank  int    `json:"rank"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// ServeHTTP implements the http.Handler interface.
func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/leaderboard.
func (h *LeaderboardHandler) list(w http.ResponseWriter, r *http.Request) {
	entries := h.board.Load()
	response := leaderboardResponse{
		Entries: make([]rankedEntry, 0, len(entries)),
	}
	for i, e := range entries {
		response.Entries = append(response.Entries, rankedEntry{
			Rank:  i + 1,
			Score: e.Score,
			Date:  e.Date,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// clear handles DELETE /api/leaderboard.
func (h *LeaderboardHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear leaderboard")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
