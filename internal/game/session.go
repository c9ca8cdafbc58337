package game

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airjuggler/internal/tracking"
)

// Phase is the session state. Sessions only move forward:
// counting down, running, over.
type Phase int

const (
	PhaseCountingDown Phase = iota
	PhaseRunning
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseCountingDown:
		return "counting_down"
	case PhaseRunning:
		return "running"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseCountingDown, PhaseRunning, PhaseOver} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// countdownEpsilon absorbs float drift from summing CountdownStep, so a 3s
// countdown at 1/60 per tick ends on tick 180.
const countdownEpsilon = 1e-9

// Event is a set of things that happened during one tick.
type Event uint8

const (
	// EventCountdown fires when the displayed countdown number changes.
	EventCountdown Event = 1 << iota
	// EventStarted fires once, when the countdown ends.
	EventStarted
	// EventBounce fires when any ball hit a paddle.
	EventBounce
	// EventWall fires when any ball hit a wall or the ceiling.
	EventWall
	// EventOver fires once, when a ball falls out.
	EventOver
)

// Has reports whether all bits of x are set in e.
func (e Event) Has(x Event) bool {
	return e&x == x
}

var eventNames = []struct {
	ev   Event
	name string
}{
	{EventCountdown, "countdown"},
	{EventStarted, "started"},
	{EventBounce, "bounce"},
	{EventWall, "wall"},
	{EventOver, "over"},
}

// Names lists the set events in bit order.
func (e Event) Names() []string {
	names := []string{}
	for _, n := range eventNames {
		if e.Has(n.ev) {
			names = append(names, n.name)
		}
	}
	return names
}

// Session is one round of the game. It is driven by a single goroutine.
type Session struct {
	id        string
	cfg       Config
	clock     Clock
	phase     Phase
	countdown float64
	startTime time.Time
	score     int
	balls     []Ball
	hands     []tracking.Point
	ticks     uint64
}

// NewSession creates a session in the countdown phase with freshly spawned
// balls.
func NewSession(cfg Config, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		clock:     clock,
		phase:     PhaseCountingDown,
		countdown: cfg.CountdownTime,
		balls:     SpawnBalls(cfg),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Score returns whole seconds survived.
func (s *Session) Score() int { return s.score }

// Countdown returns the remaining countdown in seconds.
func (s *Session) Countdown() float64 { return s.countdown }

// Over reports whether the session has ended.
func (s *Session) Over() bool { return s.phase == PhaseOver }

// Tick advances the session by one frame using the given paddle snapshot.
// Ticks after the session is over change nothing.
func (s *Session) Tick(hands []tracking.Point) Event {
	if s.phase == PhaseOver {
		return 0
	}

	s.ticks++
	s.hands = hands

	if s.phase == PhaseCountingDown {
		return s.tickCountdown()
	}
	return s.tickRunning()
}

func (s *Session) tickCountdown() Event {
	var ev Event

	before := math.Ceil(s.countdown)
	s.countdown -= s.cfg.CountdownStep

	if s.countdown <= countdownEpsilon {
		s.countdown = 0
		s.phase = PhaseRunning
		s.startTime = s.clock.Now()
		ev |= EventStarted
	}

	if math.Ceil(s.countdown) != before {
		ev |= EventCountdown
	}

	return ev
}

func (s *Session) tickRunning() Event {
	var ev Event

	for i := range s.balls {
		b := &s.balls[i]
		Integrate(b, s.cfg.Gravity)
		if ResolveWalls(b, s.cfg.Width) {
			ev |= EventWall
		}
	}

	// Every ball against every paddle, in list order, effects accumulate.
	for i := range s.balls {
		for _, p := range s.hands {
			if ResolvePaddle(&s.balls[i], p, s.cfg) {
				ev |= EventBounce
			}
		}
	}

	s.updateScore()

	for _, b := range s.balls {
		if Fallen(b, s.cfg.Height) {
			s.phase = PhaseOver
			ev |= EventOver
			break
		}
	}

	return ev
}

func (s *Session) updateScore() {
	elapsed := s.clock.Now().Sub(s.startTime).Seconds()
	score := int(math.Floor(elapsed))
	if score > s.score {
		s.score = score
	}
}

// Snapshot is a copy of the session state for rendering and broadcast.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Phase     Phase            `json:"phase"`
	Countdown float64          `json:"countdown"`
	Score     int              `json:"score"`
	Tick      uint64           `json:"tick"`
	Balls     []Ball           `json:"balls"`
	Hands     []tracking.Point `json:"hands"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	HandSize  float64          `json:"hand_size"`
}

// CountdownLabel is the whole number shown during the countdown.
func (s Snapshot) CountdownLabel() int {
	return int(math.Ceil(s.Countdown))
}

// Snapshot copies the current state. It does not modify the session.
func (s *Session) Snapshot() Snapshot {
	balls := make([]Ball, len(s.balls))
	copy(balls, s.balls)
	hands := make([]tracking.Point, len(s.hands))
	copy(hands, s.hands)

	return Snapshot{
		SessionID: s.id,
		Phase:     s.phase,
		Countdown: s.countdown,
		Score:     s.score,
		Tick:      s.ticks,
		Balls:     balls,
		Hands:     hands,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		HandSize:  s.cfg.HandSize,
	}
}

// Outcome summarizes the session. Meaningful once the session is over.
func (s *Session) Outcome() Outcome {
	return NewOutcome(s.id, s.score)
}
