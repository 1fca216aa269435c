// Package server provides the optional HTTP dashboard for the Cascade
// juggling trainer: health, session statistics, settings, a live MJPEG
// debug stream, and a WebSocket feed of track state.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cascadecv/cascade/internal/config"
	"github.com/cascadecv/cascade/internal/store"
)

// Stats is a snapshot of the running session's counters.
type Stats struct {
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
}

// Config holds the server configuration.
type Config struct {
	Store    *store.Store
	Settings config.Settings
	Hub      *Hub
	Frames   *FrameBuffer
	// Stats returns the current session counters. Called per request.
	Stats func() Stats
}

// Server represents the HTTP dashboard server.
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
	s.mux.HandleFunc("/api/settings", s.handleSettings)

	if s.config.Stats != nil || s.config.Store != nil {
		s.mux.HandleFunc("/api/stats", s.handleStats)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, response)
}

// handleSettings handles GET requests to /api/settings.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := s.config.Settings
	response := map[string]interface{}{
		"scale":      cfg.Scale,
		"debug":      cfg.Debug,
		"tracktime":  cfg.TrackTime,
		"trackrange": cfg.TrackRange,
		"framerate":  cfg.Framerate,
		"band_y":     cfg.BandY,
		"band_len":   cfg.BandLen,
	}

	writeJSON(w, response)
}

// handleStats handles GET requests to /api/stats: the live session counters
// plus stored summaries of past sessions.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{}

	if s.config.Stats != nil {
		response["current"] = s.config.Stats()
	}

	if s.config.Store != nil {
		sessions, err := s.config.Store.Sessions().List()
		if err != nil {
			http.Error(w, "Failed to load sessions", http.StatusInternalServerError)
			return
		}

		summaries := make([]map[string]interface{}, 0, len(sessions))
		for _, sess := range sessions {
			summaries = append(summaries, map[string]interface{}{
				"id":          sess.ID,
				"started_at":  sess.StartedAt,
				"ended_at":    sess.EndedAt,
				"successes":   sess.Successes,
				"failures":    sess.Failures,
				"mean_apex":   sess.MeanApex,
				"stddev_apex": sess.StddevApex,
			})
		}
		response["sessions"] = summaries
	}

	writeJSON(w, response)
}

// writeJSON encodes a response as JSON.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
