package game

import (
	"math"

	"github.com/ayusman/airjuggler/internal/tracking"
)

// Integrate applies one tick of gravity and moves the ball.
func Integrate(b *Ball, gravity float64) {
	b.VY += gravity
	b.X += b.VX
	b.Y += b.VY
}

// ResolveWalls bounces the ball off the side walls and the ceiling. The ball
// is clamped to the edge it crossed. Reports whether anything was hit.
func ResolveWalls(b *Ball, width float64) bool {
	half := b.Size / 2
	hit := false

	if b.X-half < 0 || b.X+half > width {
		b.VX = -b.VX
		if b.X < width/2 {
			b.X = half
		} else {
			b.X = width - half
		}
		hit = true
	}

	if b.Y-half < 0 {
		b.VY = -b.VY
		b.Y = half
		hit = true
	}

	return hit
}

// Collides reports whether the ball overlaps a paddle, treating both as
// circles.
func Collides(b Ball, p tracking.Point, cfg Config) bool {
	return math.Hypot(b.X-p.X, b.Y-p.Y) < cfg.CollisionRadius(b.Size)
}

// ResolvePaddle bounces the ball off one paddle. On contact the vertical
// velocity is replaced by the bounce velocity, the horizontal velocity gains
// a share of the off-center offset, and the ball is placed on the collision
// circle around the paddle so it cannot sink in.
func ResolvePaddle(b *Ball, p tracking.Point, cfg Config) bool {
	dx := b.X - p.X
	dy := b.Y - p.Y
	radius := cfg.CollisionRadius(b.Size)

	if math.Hypot(dx, dy) >= radius {
		return false
	}

	b.VY = cfg.BounceVelocity
	b.VX += dx * cfg.Steering

	angle := math.Atan2(dy, dx)
	b.X = p.X + math.Cos(angle)*radius
	b.Y = p.Y + math.Sin(angle)*radius

	return true
}

// Fallen reports whether the ball's top edge is below the canvas.
func Fallen(b Ball, height float64) bool {
	return b.Y-b.Size/2 > height
}
