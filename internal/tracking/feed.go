// Package tracking turns camera frames into paddle positions on a fixed
// cadence, independent of the game loop.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/detector"
)

// DefaultInterval is the pause between the end of one detection cycle and the
// start of the next (~30Hz).
const DefaultInterval = 33 * time.Millisecond

var (
	// ErrSetup is returned when the camera or the hand model is unavailable.
	ErrSetup = errors.New("camera access required to play")
	// ErrNotReady is returned by Start before a successful Setup.
	ErrNotReady = errors.New("hand tracking not initialized")
)

// Config holds feed settings.
type Config struct {
	// Interval is the delay after each cycle before the next one starts.
	Interval time.Duration
	// Width and Height are the canvas size that normalized landmarks map onto.
	Width  float64
	Height float64
	// Mirror flips x so positions match a selfie-view rendering.
	Mirror bool
}

// DefaultConfig returns a 640x480 mirrored feed at ~30Hz.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Width:    capture.DefaultWidth,
		Height:   capture.DefaultHeight,
		Mirror:   true,
	}
}

// Feed runs the detection cycle and publishes paddle positions to a Slot.
type Feed struct {
	camera   capture.Camera
	detector detector.Detector
	frames   *capture.FrameBuffer
	config   Config
	slot     Slot
	tracer   trace.Tracer

	mu      sync.Mutex
	ready   bool
	running bool
	done    chan struct{}
	stopped atomic.Bool

	cycles   atomic.Uint64
	failures atomic.Uint64
}

// New creates a Feed. Setup must succeed before Start.
func New(camera capture.Camera, det detector.Detector, config Config) *Feed {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Width <= 0 {
		config.Width = capture.DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = capture.DefaultHeight
	}

	return &Feed{
		camera:   camera,
		detector: det,
		frames:   capture.NewFrameBuffer(),
		config:   config,
		tracer:   otel.Tracer("github.com/ayusman/airjuggler/internal/tracking"),
	}
}

// Setup opens the camera and loads the hand model. Errors wrap ErrSetup.
// Once Setup succeeds further calls are no-ops.
func (f *Feed) Setup() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ready {
		return nil
	}

	if err := f.camera.Open(); err != nil {
		return fmt.Errorf("%w: open camera: %w", ErrSetup, err)
	}

	if err := f.detector.Load(); err != nil {
		f.camera.Close()
		return fmt.Errorf("%w: load hand model: %w", ErrSetup, err)
	}

	f.ready = true
	log.Println("Hand tracking initialized")
	return nil
}

// Ready reports whether Setup has succeeded.
func (f *Feed) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Start begins the detection cycle in its own goroutine. Starting a running
// feed is a no-op; if a Stop is pending, Start waits for that goroutine to
// exit and launches a fresh one bound to ctx.
func (f *Feed) Start(ctx context.Context) error {
	for {
		f.mu.Lock()
		if !f.ready {
			f.mu.Unlock()
			return ErrNotReady
		}
		if !f.running {
			break
		}
		if !f.stopped.Load() {
			f.mu.Unlock()
			return nil
		}
		done := f.done
		f.mu.Unlock()
		<-done
	}
	defer f.mu.Unlock()

	f.stopped.Store(false)
	f.running = true
	f.done = make(chan struct{})
	go f.run(ctx, f.done)

	log.Println("Hand detection started")
	return nil
}

// Stop asks the cycle to end. It is honored at the next cycle boundary; a
// cycle already in flight still publishes its result.
func (f *Feed) Stop() {
	f.stopped.Store(true)
}

// Wait blocks until the detection goroutine has exited.
func (f *Feed) Wait() {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether the detection goroutine is alive.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Close stops the cycle and releases the camera, detector and frame buffer.
func (f *Feed) Close() error {
	f.Stop()
	f.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	if err := f.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := f.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	f.frames.Close()
	f.ready = false

	return errors.Join(errs...)
}

// Hands returns the most recently published paddle positions.
func (f *Feed) Hands() []Point {
	return f.slot.Load()
}

// Frames returns the buffer holding the latest camera frame.
func (f *Feed) Frames() *capture.FrameBuffer {
	return f.frames
}

// Stats returns the number of completed and failed cycles.
func (f *Feed) Stats() (cycles, failures uint64) {
	return f.cycles.Load(), f.failures.Load()
}

func (f *Feed) run(ctx context.Context, done chan struct{}) {
	defer func() {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
		close(done)
		log.Println("Hand detection stopped")
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if f.stopped.Load() {
			return
		}

		f.cycle(ctx)
		timer.Reset(f.config.Interval)
	}
}

// cycle runs one detection pass. Failures are logged and swallowed so the
// feed keeps going; the previous hand list stays published.
func (f *Feed) cycle(ctx context.Context) {
	_, span := f.tracer.Start(ctx, "tracking.detect")
	defer span.End()

	f.cycles.Add(1)

	frame, err := f.camera.ReadFrame()
	if err != nil {
		f.fail(span, "reading frame", err)
		return
	}
	defer frame.Close()

	f.frames.Update(frame)

	hands, err := f.detector.Detect(frame)
	if err != nil {
		f.fail(span, "detecting hands", err)
		return
	}

	points := PalmPoints(hands, f.config)
	f.slot.Store(points)
	span.SetAttributes(attribute.Int("hands", len(points)))
}

func (f *Feed) fail(span trace.Span, what string, err error) {
	f.failures.Add(1)
	log.Printf("Error %s: %v", what, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, what)
}

// PalmPoints reduces each hand to its palm center in canvas pixels.
func PalmPoints(hands []detector.HandLandmarks, config Config) []Point {
	points := make([]Point, 0, len(hands))
	for i := range hands {
		nx, ny := hands[i].PalmCenter()
		x := nx * config.Width
		y := ny * config.Height
		if config.Mirror {
			x = config.Width - x
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}
