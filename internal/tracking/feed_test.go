package tracking

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/detector"
)

const epsilon = 1e-9

func newTestFeed(t *testing.T) (*Feed, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()

	cam := capture.NewBlankCamera(64, 48)
	t.Cleanup(cam.Release)

	det := detector.NewMockDetector()

	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond

	feed := New(cam, det, cfg)
	t.Cleanup(func() { feed.Close() })

	return feed, cam, det
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPalmPoints(t *testing.T) {
	tests := []struct {
		name   string
		hands  []detector.HandLandmarks
		mirror bool
		want   []Point
	}{
		{
			name:   "no hands",
			hands:  nil,
			mirror: true,
			want:   []Point{},
		},
		{
			name:   "mirrored",
			hands:  []detector.HandLandmarks{detector.HandAt(0.25, 0.5)},
			mirror: true,
			want:   []Point{{X: 480, Y: 240}},
		},
		{
			name:   "not mirrored",
			hands:  []detector.HandLandmarks{detector.HandAt(0.25, 0.5)},
			mirror: false,
			want:   []Point{{X: 160, Y: 240}},
		},
		{
			name:   "two hands keep order",
			hands:  []detector.HandLandmarks{detector.HandAt(0.1, 0.2), detector.HandAt(0.9, 0.8)},
			mirror: true,
			want:   []Point{{X: 576, Y: 96}, {X: 64, Y: 384}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mirror = tt.mirror

			got := PalmPoints(tt.hands, cfg)

			if len(got) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i].X-tt.want[i].X) > epsilon || math.Abs(got[i].Y-tt.want[i].Y) > epsilon {
					t.Errorf("point %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFeed_StartBeforeSetup(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	if err := feed.Start(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Start() error = %v, want %v", err, ErrNotReady)
	}
}

func TestFeed_Setup(t *testing.T) {
	t.Run("camera denied", func(t *testing.T) {
		feed, cam, _ := newTestFeed(t)
		cam.SetOpenError(capture.ErrPermissionDenied)

		err := feed.Setup()
		if !errors.Is(err, ErrSetup) {
			t.Fatalf("Setup() error = %v, want ErrSetup", err)
		}
		if !errors.Is(err, capture.ErrPermissionDenied) {
			t.Errorf("Setup() error should wrap cause, got %v", err)
		}
		if feed.Ready() {
			t.Error("feed should not be ready")
		}
	})

	t.Run("model load fails", func(t *testing.T) {
		feed, cam, det := newTestFeed(t)
		det.SetLoadError(errors.New("no model"))

		if err := feed.Setup(); !errors.Is(err, ErrSetup) {
			t.Fatalf("Setup() error = %v, want ErrSetup", err)
		}
		if cam.IsOpen() {
			t.Error("camera should be closed after model load failure")
		}
	})

	t.Run("success is idempotent", func(t *testing.T) {
		feed, _, det := newTestFeed(t)

		if err := feed.Setup(); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		det.SetLoadError(errors.New("would fail if called again"))
		if err := feed.Setup(); err != nil {
			t.Errorf("second Setup() error = %v", err)
		}
		if !feed.Ready() {
			t.Error("feed should be ready")
		}
	})
}

func TestFeed_PublishesHands(t *testing.T) {
	feed, _, det := newTestFeed(t)
	det.SetHands([]detector.HandLandmarks{detector.HandAt(0.5, 0.5)})

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, func() bool { return len(feed.Hands()) == 1 })

	got := feed.Hands()[0]
	if math.Abs(got.X-320) > epsilon || math.Abs(got.Y-240) > epsilon {
		t.Errorf("hand = %+v, want {320 240}", got)
	}

	if !feed.Frames().Available() {
		t.Error("expected the latest frame to be buffered for rendering")
	}

	// The whole list is replaced, not merged.
	det.SetHands(nil)
	waitFor(t, func() bool { return len(feed.Hands()) == 0 })
}

func TestFeed_SurvivesDetectionErrors(t *testing.T) {
	feed, _, det := newTestFeed(t)
	det.SetHands([]detector.HandLandmarks{detector.HandAt(0.5, 0.5)})

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return len(feed.Hands()) == 1 })

	det.SetError(errors.New("model hiccup"))
	waitFor(t, func() bool {
		_, failures := feed.Stats()
		return failures >= 3
	})

	if !feed.Running() {
		t.Fatal("feed should keep running after detection errors")
	}
	// Failed cycles leave the last good list published.
	if len(feed.Hands()) != 1 {
		t.Errorf("expected stale hand list to remain, got %v", feed.Hands())
	}

	det.SetError(nil)
	det.SetHands([]detector.HandLandmarks{detector.HandAt(0.2, 0.5), detector.HandAt(0.8, 0.5)})
	waitFor(t, func() bool { return len(feed.Hands()) == 2 })
}

func TestFeed_Stop(t *testing.T) {
	feed, _, det := newTestFeed(t)

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return det.Calls() > 0 })

	feed.Stop()
	feed.Wait()

	if feed.Running() {
		t.Fatal("feed should not be running after Stop")
	}

	calls := det.Calls()
	time.Sleep(20 * time.Millisecond)
	if det.Calls() != calls {
		t.Errorf("detector called after Stop: %d -> %d", calls, det.Calls())
	}

	t.Run("restart", func(t *testing.T) {
		if err := feed.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		waitFor(t, func() bool { return det.Calls() > calls })
	})
}

// gateDetector blocks every Detect until release is closed.
type gateDetector struct {
	hands   []detector.HandLandmarks
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGateDetector(hands ...detector.HandLandmarks) *gateDetector {
	return &gateDetector{
		hands:   hands,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gateDetector) Load() error  { return nil }
func (g *gateDetector) Close() error { return nil }

func (g *gateDetector) Detect(*gocv.Mat) ([]detector.HandLandmarks, error) {
	g.calls.Add(1)
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.hands, nil
}

func TestFeed_StopDuringCycle(t *testing.T) {
	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()

	det := newGateDetector(detector.HandAt(0.5, 0.25))
	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond

	feed := New(cam, det, cfg)
	defer feed.Close()

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-det.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("detection never started")
	}

	feed.Stop()
	close(det.release)
	feed.Wait()

	hands := feed.Hands()
	if len(hands) != 1 {
		t.Fatalf("Hands() = %v, want the in-flight cycle's hand", hands)
	}
	if math.Abs(hands[0].X-320) > epsilon || math.Abs(hands[0].Y-120) > epsilon {
		t.Errorf("hand = %+v, want {320 120}", hands[0])
	}

	time.Sleep(10 * time.Millisecond)
	if n := det.calls.Load(); n != 1 {
		t.Errorf("Detect called %d times, want 1", n)
	}
}

func TestFeed_StartAfterPendingStop(t *testing.T) {
	feed, _, det := newTestFeed(t)

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	if err := feed.Start(first); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return det.Calls() > 0 })

	feed.Stop()
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start() after Stop error = %v", err)
	}

	// The relaunched cycle must not depend on the first context.
	cancelFirst()
	calls := det.Calls()
	waitFor(t, func() bool { return det.Calls() > calls+2 })
	if !feed.Running() {
		t.Error("feed stopped although Start succeeded")
	}
}

func TestFeed_ContextCancel(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	if err := feed.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()
	feed.Wait()

	if feed.Running() {
		t.Error("feed should stop when its context is cancelled")
	}
}
