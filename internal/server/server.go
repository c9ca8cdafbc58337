// Package server provides the HTTP server for Air Juggler.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/airjuggler/internal/server/api"
)

// Config holds the server configuration. Nil fields leave their routes
// unregistered.
type Config struct {
	StaticDir   string
	Game        api.GameService
	Leaderboard api.Board
	Frames      FrameSource
	State       *StateHub
}

// Server represents the HTTP server for the Air Juggler application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Game != nil {
		s.mux.Handle("/api/game", api.NewGameHandler(s.config.Game))
	}

	if s.config.Leaderboard != nil {
		s.mux.Handle("/api/leaderboard", api.NewLeaderboardHandler(s.config.Leaderboard))
	}

	// Rendered canvas as MJPEG
	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	// Session snapshots over WebSocket
	if s.config.State != nil {
		s.mux.Handle("/api/state", s.config.State)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// healthResponse is the body of GET /api/health. Game and viewer fields
// appear only when those routes are configured.
type healthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Playing       *bool  `json:"playing,omitempty"`
	TrackingReady *bool  `json:"tracking_ready,omitempty"`
	Viewers       *int   `json:"viewers,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Game != nil {
		st := s.config.Game.Status()
		resp.Playing = &st.Active
		resp.TrackingReady = &st.TrackingReady
	}
	if s.config.State != nil {
		n := s.config.State.Clients()
		resp.Viewers = &n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode health response: %v", err)
	}
}

// HTTPServer returns an *http.Server for addr, for callers that need a
// graceful Shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
