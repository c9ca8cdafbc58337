// Package config loads runtime settings from AIRJUGGLER_* environment
// variables and maps them onto the per-package configs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/detector"
	"github.com/ayusman/airjuggler/internal/game"
	"github.com/ayusman/airjuggler/internal/tracking"
)

// Config is the process configuration.
type Config struct {
	Addr    string `env:"AIRJUGGLER_ADDR" envDefault:":8080"`
	DataDir string `env:"AIRJUGGLER_DATA_DIR"`
	WebDir  string `env:"AIRJUGGLER_WEB_DIR"`

	CameraID int `env:"AIRJUGGLER_CAMERA" envDefault:"0"`
	Width    int `env:"AIRJUGGLER_WIDTH" envDefault:"640"`
	Height   int `env:"AIRJUGGLER_HEIGHT" envDefault:"480"`

	BallCount      int           `env:"AIRJUGGLER_BALLS" envDefault:"1"`
	TickRate       int           `env:"AIRJUGGLER_TICK_RATE" envDefault:"60"`
	DetectInterval time.Duration `env:"AIRJUGGLER_DETECT_INTERVAL" envDefault:"33ms"`
	MaxHands       int           `env:"AIRJUGGLER_MAX_HANDS" envDefault:"2"`
	Mirror         bool          `env:"AIRJUGGLER_MIRROR" envDefault:"true"`

	// MockDetector skips MediaPipe entirely.
	MockDetector bool   `env:"AIRJUGGLER_MOCK_DETECTOR"`
	ScriptPath   string `env:"AIRJUGGLER_MEDIAPIPE_SCRIPT"`
	Python       string `env:"AIRJUGGLER_PYTHON"`
	Sound        bool   `env:"AIRJUGGLER_SOUND" envDefault:"true"`
	Tray         bool   `env:"AIRJUGGLER_TRAY" envDefault:"true"`
	Terminal     bool   `env:"AIRJUGGLER_TERMINAL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.Width, c.Height))
	}
	if c.BallCount < 1 {
		errs = append(errs, fmt.Errorf("ball count %d must be at least 1", c.BallCount))
	}
	if c.TickRate < 1 {
		errs = append(errs, fmt.Errorf("tick rate %d must be at least 1", c.TickRate))
	}
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max hands %d must be at least 1", c.MaxHands))
	}
	if c.DetectInterval <= 0 {
		errs = append(errs, fmt.Errorf("detect interval %v must be positive", c.DetectInterval))
	}
	return errors.Join(errs...)
}

// DataPath returns the data directory, defaulting to ~/.airjuggler.
func (c Config) DataPath() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".airjuggler"), nil
}

// Camera returns the capture settings.
func (c Config) Camera() capture.Config {
	cfg := capture.DefaultConfig()
	cfg.DeviceID = c.CameraID
	cfg.Width = c.Width
	cfg.Height = c.Height
	return cfg
}

// Detector returns the hand model settings.
func (c Config) Detector() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.MaxHands = c.MaxHands
	cfg.ScriptPath = c.ScriptPath
	cfg.Python = c.Python
	return cfg
}

// Feed returns the hand tracking settings.
func (c Config) Feed() tracking.Config {
	return tracking.Config{
		Interval: c.DetectInterval,
		Width:    float64(c.Width),
		Height:   float64(c.Height),
		Mirror:   c.Mirror,
	}
}

// Game returns the game tuning. Physics constants keep their defaults.
func (c Config) Game() game.Config {
	cfg := game.DefaultConfig()
	cfg.BallCount = c.BallCount
	cfg.TickRate = c.TickRate
	cfg.CountdownStep = 1 / float64(c.TickRate)
	cfg.Width = float64(c.Width)
	cfg.Height = float64(c.Height)
	return cfg
}
