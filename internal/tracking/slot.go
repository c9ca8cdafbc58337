package tracking

import "sync/atomic"

// Point is a paddle center in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Slot holds the latest list of paddle positions. Each Store replaces the
// whole list; readers never block and always see a complete list.
type Slot struct {
	current atomic.Pointer[[]Point]
	version atomic.Uint64
}

// Store replaces the held list with a copy of points.
func (s *Slot) Store(points []Point) {
	cp := make([]Point, len(points))
	copy(cp, points)
	s.current.Store(&cp)
	s.version.Add(1)
}

// Load returns the latest list. The returned slice is shared and must not be
// modified.
func (s *Slot) Load() []Point {
	p := s.current.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Version counts Store calls.
func (s *Slot) Version() uint64 {
	return s.version.Load()
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.Store(nil)
}
