// Package capture reads webcam frames for hand tracking and the video
// background.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading before Open or after Close.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrDeviceUnavailable means the device is missing, busy, or access was
	// refused. OpenCV does not tell these apart.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrPermissionDenied is the explicit refusal of camera access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrFrameUnavailable means the device delivered no usable frame this time.
	ErrFrameUnavailable = errors.New("camera frame unavailable")
)

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns a new Mat the caller must Close.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// Config holds camera device settings. Width, Height and FPS are requests;
// the driver may negotiate something else.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultConfig returns the settings for the default webcam at 640x480.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	return c
}

// webcam reads from a local device through OpenCV.
type webcam struct {
	config Config

	mu     sync.Mutex
	device *gocv.VideoCapture
}

// NewCamera creates a Camera for the configured device. Nothing is opened
// until Open.
func NewCamera(config Config) Camera {
	return &webcam{config: config.withDefaults()}
}

// Open acquires the device. Opening an open camera is a no-op.
func (w *webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device != nil {
		return nil
	}

	device, err := gocv.OpenVideoCapture(w.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w: %w", w.config.DeviceID, ErrDeviceUnavailable, err)
	}
	if !device.IsOpened() {
		device.Close()
		return fmt.Errorf("open camera %d: %w", w.config.DeviceID, ErrDeviceUnavailable)
	}

	device.Set(gocv.VideoCaptureFrameWidth, float64(w.config.Width))
	device.Set(gocv.VideoCaptureFrameHeight, float64(w.config.Height))
	device.Set(gocv.VideoCaptureFPS, float64(w.config.FPS))

	w.device = device
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (w *webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil {
		return nil
	}
	err := w.device.Close()
	w.device = nil
	return err
}

func (w *webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := w.device.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrFrameUnavailable
	}
	return &mat, nil
}

func (w *webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.device != nil
}
