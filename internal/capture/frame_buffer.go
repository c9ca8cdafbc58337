package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent camera frame for readers that run on a
// different cadence than capture (the renderer draws at 60Hz, capture runs
// at the detection rate).
type FrameBuffer struct {
	mu    sync.Mutex
	frame gocv.Mat
	ok    bool
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{frame: gocv.NewMat()}
}

// Update replaces the buffered frame with a copy of frame.
func (b *FrameBuffer) Update(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	frame.CopyTo(&b.frame)
	b.ok = true
}

// CopyTo copies the buffered frame into dst. It returns false when no frame
// has been captured yet.
func (b *FrameBuffer) CopyTo(dst *gocv.Mat) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ok {
		return false
	}
	b.frame.CopyTo(dst)
	return true
}

// Available reports whether a frame has been captured.
func (b *FrameBuffer) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ok
}

// Reset drops the buffered frame.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok = false
}

// Close releases the buffered frame.
func (b *FrameBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Close()
	b.frame = gocv.NewMat()
	b.ok = false
}
