package server

import (
	"fmt"
	"net/http"
	"time"
)

// StreamInterval caps the MJPEG frame rate (~30 FPS).
const StreamInterval = 33 * time.Millisecond

// FrameSource supplies encoded JPEG frames. *render.Canvas satisfies it.
type FrameSource interface {
	// Frame returns the latest JPEG and its sequence number, 0 if none yet.
	Frame() ([]byte, uint64)
	// Updated returns a channel closed when a newer frame is available.
	Updated() <-chan struct{}
}

// StreamHandler serves MJPEG frames of the rendered game canvas.
type StreamHandler struct {
	frames FrameSource
}

// NewStreamHandler creates a new StreamHandler with the given frame source.
func NewStreamHandler(frames FrameSource) *StreamHandler {
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

	var sent uint64
	for {
		updated := h.frames.Updated()
		data, seq := h.frames.Frame()

		if seq == 0 || seq == sent {
			select {
			case <-r.Context().Done():
				return
			case <-updated:
				continue
			}
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")
		sent = seq

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(StreamInterval):
		}
	}
}
