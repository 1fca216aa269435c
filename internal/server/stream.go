package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// FrameBuffer holds the most recently rendered frame as JPEG bytes.
// The pipeline sets it once per frame; stream clients read it at their own
// pace, so slow clients never back-pressure the frame loop.
type FrameBuffer struct {
	mu   sync.RWMutex
	jpeg []byte
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Set replaces the buffered frame. The slice is copied.
func (b *FrameBuffer) Set(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = append(b.jpeg[:0], jpeg...)
}

// Get returns a copy of the buffered frame, or nil if none yet.
func (b *FrameBuffer) Get() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.jpeg) == 0 {
		return nil
	}
	return append([]byte(nil), b.jpeg...)
}

// StreamHandler serves the buffered frames as an MJPEG stream.
type StreamHandler struct {
	frames *FrameBuffer
}

// NewStreamHandler creates a new StreamHandler over the given buffer.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		buf := h.frames.Get()
		if buf == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		w.Write(buf)
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(66 * time.Millisecond) // ~15 FPS
	}
}
