package game

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/ayusman/airjuggler/internal/tracking"
)

// HandSource supplies the latest paddle positions without blocking.
type HandSource interface {
	Hands() []tracking.Point
}

// Renderer draws a snapshot. Render must not block for long; it runs on the
// loop goroutine every tick.
type Renderer interface {
	Render(Snapshot)
}

// Observer is notified after every tick with the new state and its events.
type Observer func(Snapshot, Event)

// Loop drives a Session at the configured tick rate.
type Loop struct {
	session   *Session
	hands     HandSource
	renderer  Renderer
	observers []Observer
	interval  time.Duration
	last      atomic.Pointer[Snapshot]
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithRenderer sets the renderer called every tick.
func WithRenderer(r Renderer) LoopOption {
	return func(l *Loop) { l.renderer = r }
}

// WithObserver adds a tick observer.
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// NewLoop creates a loop for session reading paddles from hands.
func NewLoop(session *Session, hands HandSource, opts ...LoopOption) *Loop {
	l := &Loop{
		session:  session,
		hands:    hands,
		interval: session.cfg.TickInterval(),
	}
	for _, opt := range opts {
		opt(l)
	}

	snap := session.Snapshot()
	l.last.Store(&snap)
	return l
}

// Session returns the session driven by the loop.
func (l *Loop) Session() *Session {
	return l.session
}

// Snapshot returns the state after the most recent tick. Safe to call from
// any goroutine.
func (l *Loop) Snapshot() Snapshot {
	return *l.last.Load()
}

// Step runs one tick: read paddles, advance the session, render, notify.
func (l *Loop) Step() Event {
	var hands []tracking.Point
	if l.hands != nil {
		hands = l.hands.Hands()
	}

	ev := l.session.Tick(hands)
	snap := l.session.Snapshot()
	l.last.Store(&snap)

	if l.renderer != nil {
		l.renderer.Render(snap)
	}
	for _, o := range l.observers {
		o(snap, ev)
	}

	return ev
}

// Run ticks until the session ends or ctx is cancelled. The ticker is
// stopped as soon as the session is over.
func (l *Loop) Run(ctx context.Context) (Outcome, error) {
	if l.session.Over() {
		return l.session.Outcome(), nil
	}

	if l.renderer != nil {
		l.renderer.Render(l.Snapshot())
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("Session %s started", l.session.ID())

	for {
		select {
		case <-ctx.Done():
			log.Printf("Session %s cancelled", l.session.ID())
			return Outcome{}, ctx.Err()
		case <-ticker.C:
			if ev := l.Step(); ev.Has(EventOver) {
				ticker.Stop()
				outcome := l.session.Outcome()
				log.Printf("Session %s over: %d seconds", outcome.SessionID, outcome.Score)
				return outcome, nil
			}
		}
	}
}
