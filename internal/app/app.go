// Package app provides the main application logic for Air Juggler: it owns
// hand tracking and runs one game session at a time.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/detector"
	"github.com/ayusman/airjuggler/internal/game"
	"github.com/ayusman/airjuggler/internal/leaderboard"
	"github.com/ayusman/airjuggler/internal/render"
	"github.com/ayusman/airjuggler/internal/sound"
	"github.com/ayusman/airjuggler/internal/store"
	"github.com/ayusman/airjuggler/internal/tracking"
)

// ErrSessionActive is returned by StartGame while a session is running.
var ErrSessionActive = errors.New("a game is already in progress")

// Config holds configuration options for the application.
type Config struct {
	// Store backs the leaderboard. Required.
	Store    *store.Store
	Camera   capture.Config
	Detector detector.Config
	Feed     tracking.Config
	Game     game.Config
	// MockDetector skips MediaPipe.
	MockDetector bool
	// Sound enables audio cues.
	Sound bool
}

// DefaultConfig returns the standard 640x480 game with sound.
func DefaultConfig() Config {
	return Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Feed:     tracking.DefaultConfig(),
		Game:     game.DefaultConfig(),
		Sound:    true,
	}
}

// Option customizes an App.
type Option func(*App)

// WithCamera replaces the webcam.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

// WithDetector replaces the hand detector.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithPlayer replaces the sound player.
func WithPlayer(p sound.Player) Option {
	return func(a *App) { a.player = p }
}

// WithClock replaces the scoring clock.
func WithClock(c game.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithRenderer adds a renderer that receives every frame next to the canvas.
func WithRenderer(r game.Renderer) Option {
	return func(a *App) { a.renderers = append(a.renderers, r) }
}

// Status describes the current or last session.
type Status struct {
	Active        bool           `json:"active"`
	Starting      bool           `json:"starting"`
	TrackingReady bool           `json:"tracking_ready"`
	Session       *game.Snapshot `json:"session,omitempty"`
	LastOutcome   *game.Outcome  `json:"last_outcome,omitempty"`
}

// App is the main application that wires hand tracking into game sessions.
type App struct {
	config    Config
	camera    capture.Camera
	detector  detector.Detector
	feed      *tracking.Feed
	canvas    *render.Canvas
	board     *leaderboard.Board
	player    sound.Player
	clock     game.Clock
	renderers []game.Renderer

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	loop      *game.Loop
	active    bool
	starting  bool
	setup     chan struct{}
	done      chan struct{}
	last      *game.Outcome
	observers []game.Observer
	onOver    []func(game.Outcome)
}

// New creates a new App instance with the given configuration.
func New(config Config, opts ...Option) *App {
	a := &App{config: config}
	for _, opt := range opts {
		opt(a)
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.Camera)
	}

	if a.detector == nil {
		if config.MockDetector {
			a.detector = detector.NewMockDetector()
			log.Println("Using mock hand detection")
		} else if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			// Games fail setup until the service is installed.
			log.Printf("MediaPipe not available: %v", err)
			a.detector = detector.Unavailable{Err: err}
		}
	}

	if a.player == nil {
		a.player = sound.Nop{}
		if config.Sound {
			if sp, err := sound.NewSpeaker(); err == nil {
				a.player = sp
			} else {
				log.Printf("Audio not available (%v), playing silently", err)
			}
		}
	}

	if a.clock == nil {
		a.clock = game.SystemClock{}
	}

	a.feed = tracking.New(a.camera, a.detector, config.Feed)
	a.canvas = render.NewCanvas(int(config.Game.Width), int(config.Game.Height), a.feed.Frames(), config.Feed.Mirror)
	a.board = leaderboard.New(config.Store.Settings())
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.canvas.Idle()

	return a
}

// OnTick registers an observer for every tick of future sessions.
func (a *App) OnTick(o game.Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// OnGameOver registers a callback run after each finished session is saved.
func (a *App) OnGameOver(fn func(game.Outcome)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onOver = append(a.onOver, fn)
}

// StartGame begins a new session. The first call sets up hand tracking;
// setup errors wrap tracking.ErrSetup and leave the app idle so a later call
// can try again. Setup runs without holding the state lock, so Status stays
// responsive while the camera opens. The session runs in the background
// until a ball falls.
func (a *App) StartGame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.active || a.starting {
		a.mu.Unlock()
		return ErrSessionActive
	}
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		return context.Canceled
	}
	a.starting = true
	setup := make(chan struct{})
	a.setup = setup
	a.mu.Unlock()

	err := a.startTracking()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.starting = false
	close(setup)

	if err != nil {
		return err
	}
	if a.ctx.Err() != nil {
		return context.Canceled
	}

	session := game.NewSession(a.config.Game, a.clock)
	opts := []game.LoopOption{
		game.WithRenderer(a.renderer()),
		game.WithObserver(sound.Observer(a.player)),
	}
	for _, o := range a.observers {
		opts = append(opts, game.WithObserver(o))
	}

	loop := game.NewLoop(session, a.feed, opts...)
	done := make(chan struct{})

	a.loop = loop
	a.active = true
	a.done = done

	go a.run(loop, done)

	log.Printf("Starting game %s", session.ID())
	return nil
}

// startTracking runs feed setup and starts detection once. Only the caller
// that set starting runs it.
func (a *App) startTracking() error {
	if a.feed.Running() {
		return nil
	}
	if err := a.feed.Setup(); err != nil {
		log.Printf("Hand tracking setup failed: %v", err)
		return err
	}
	return a.feed.Start(a.ctx)
}

func (a *App) run(loop *game.Loop, done chan struct{}) {
	defer close(done)

	outcome, err := loop.Run(a.ctx)
	if err != nil {
		a.mu.Lock()
		a.active = false
		a.mu.Unlock()
		return
	}

	rank, err := a.board.Save(outcome.Score)
	if err != nil {
		log.Printf("Failed to save score: %v", err)
	}
	outcome.Rank = rank
	a.player.GameOver()

	a.mu.Lock()
	a.last = &outcome
	a.active = false
	callbacks := append([]func(game.Outcome){}, a.onOver...)
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(outcome)
	}
}

func (a *App) renderer() game.Renderer {
	if len(a.renderers) == 0 {
		return a.canvas
	}
	return multiRenderer(append([]game.Renderer{a.canvas}, a.renderers...))
}

// Wait blocks until the current session, if any, has finished.
func (a *App) Wait() {
	a.mu.RLock()
	done := a.done
	a.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// Status reports whether a session is running, its latest state, and the
// last finished outcome.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		Active:        a.active,
		Starting:      a.starting,
		TrackingReady: a.feed.Ready(),
		LastOutcome:   a.last,
	}
	if a.loop != nil {
		snap := a.loop.Snapshot()
		st.Session = &snap
	}
	return st
}

// Snapshot returns the latest session state, if any session has started.
func (a *App) Snapshot() (game.Snapshot, bool) {
	a.mu.RLock()
	loop := a.loop
	a.mu.RUnlock()

	if loop == nil {
		return game.Snapshot{}, false
	}
	return loop.Snapshot(), true
}

// Leaderboard returns the best-scores board.
func (a *App) Leaderboard() *leaderboard.Board {
	return a.board
}

// Canvas returns the renderer holding the latest encoded frame.
func (a *App) Canvas() *render.Canvas {
	return a.canvas
}

// Feed returns the hand tracking feed.
func (a *App) Feed() *tracking.Feed {
	return a.feed
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Shutdown ends any running session, stops hand tracking and releases the
// camera, detector, canvas and audio.
func (a *App) Shutdown() {
	a.cancel()

	a.mu.RLock()
	setup := a.setup
	a.mu.RUnlock()
	if setup != nil {
		<-setup
	}
	a.Wait()

	if err := a.feed.Close(); err != nil {
		log.Printf("Error closing hand tracking: %v", err)
	}
	a.canvas.Close()
	if err := a.player.Close(); err != nil {
		log.Printf("Error closing audio: %v", err)
	}

	log.Println("Air Juggler stopped")
}

type multiRenderer []game.Renderer

func (m multiRenderer) Render(s game.Snapshot) {
	for _, r := range m {
		r.Render(s)
	}
}
