// Package game implements the juggling session: ball physics, paddle
// collisions, scoring and the render/physics loop.
package game

import "time"

// Config holds the game tuning. Velocities and gravity are per tick, so the
// feel of the game follows the tick rate.
type Config struct {
	BallCount      int
	BallSize       float64
	Gravity        float64
	BounceVelocity float64
	HandSize       float64
	Steering       float64
	CountdownTime  float64
	CountdownStep  float64
	Width          float64
	Height         float64
	SpawnY         float64
	TickRate       int
}

// DefaultConfig returns the standard 640x480 single-ball game at 60Hz.
func DefaultConfig() Config {
	return Config{
		BallCount:      1,
		BallSize:       32,
		Gravity:        0.18,
		BounceVelocity: -7.5,
		HandSize:       48,
		Steering:       0.14,
		CountdownTime:  3,
		CountdownStep:  1.0 / 60,
		Width:          640,
		Height:         480,
		SpawnY:         120,
		TickRate:       60,
	}
}

// TickInterval returns the time between loop ticks.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// CollisionRadius is the center distance below which a ball touches a paddle.
func (c Config) CollisionRadius(ballSize float64) float64 {
	return ballSize/2 + c.HandSize/2
}
