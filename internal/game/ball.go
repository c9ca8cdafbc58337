package game

import "image/color"

// Drawing colors.
var (
	BallColor   = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff} // gold
	PaddleColor = color.RGBA{R: 0x5e, G: 0xaa, B: 0x46, A: 0xff}
	BorderColor = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Ball is a square block with a center position and per-tick velocity.
type Ball struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	VX    float64    `json:"vx"`
	VY    float64    `json:"vy"`
	Size  float64    `json:"size"`
	Color color.RGBA `json:"-"`
}

// SpawnBalls places cfg.BallCount balls at the spawn point, at rest.
func SpawnBalls(cfg Config) []Ball {
	balls := make([]Ball, cfg.BallCount)
	for i := range balls {
		balls[i] = Ball{
			X:     cfg.Width / 2,
			Y:     cfg.SpawnY,
			Size:  cfg.BallSize,
			Color: BallColor,
		}
	}
	return balls
}
