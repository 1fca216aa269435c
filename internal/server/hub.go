package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// TrackState is one live track as published to WebSocket clients.
type TrackState struct {
	ID    int    `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	State string `json:"state"`
}

// FeedbackEvent is one judged throw as published to WebSocket clients.
type FeedbackEvent struct {
	TrackID int     `json:"track_id"`
	Verdict string  `json:"verdict"`
	Height  float64 `json:"height"`
}

// LiveUpdate is the per-frame payload published to WebSocket clients.
type LiveUpdate struct {
	Timestamp int64           `json:"timestamp"`
	Tracks    []TrackState    `json:"tracks"`
	Feedback  []FeedbackEvent `json:"feedback,omitempty"`
}

// Hub broadcasts live track state over WebSocket. The frame pipeline
// publishes into it; the hub never touches the camera itself.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish sends a live update to all connected clients. Safe to call from
// the frame pipeline; a client write failure only affects that client.
func (h *Hub) Publish(u LiveUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(u)
	if err != nil {
		return
	}

	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
