package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Load prepares the pose-estimation model. It is called once before the
	// first Detect and must report model availability problems.
	Load() error

	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the MediaPipe model: 0 lite, 1 full.
	ModelComplexity int

	// ScriptPath overrides the search for mediapipe_service.py.
	ScriptPath string

	// Python overrides the interpreter; by default a local venv, else python3.
	Python string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelComplexity: 1,
	}
}

// Unavailable stands in for a detector that could not be constructed. Its
// Load reports the construction error so setup fails the same way a broken
// model does.
type Unavailable struct {
	Err error
}

func (u Unavailable) Load() error { return u.Err }

func (u Unavailable) Detect(*gocv.Mat) ([]HandLandmarks, error) { return nil, u.Err }

func (u Unavailable) Close() error { return nil }
