// Package sound plays short cues for game events.
package sound

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/ayusman/airjuggler/internal/game"
)

// SampleRate is the output rate used by the speaker.
const SampleRate = beep.SampleRate(44100)

// Player plays game cues. Calls must not block.
type Player interface {
	Bounce()
	Countdown()
	GameOver()
	Close() error
}

// Nop is a silent Player.
type Nop struct{}

func (Nop) Bounce()      {}
func (Nop) Countdown()   {}
func (Nop) GameOver()    {}
func (Nop) Close() error { return nil }

// Speaker plays cues on the default audio device.
type Speaker struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	closed bool
}

// NewSpeaker opens the audio device.
func NewSpeaker() (*Speaker, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	s := &Speaker{mixer: &beep.Mixer{}}
	speaker.Play(s.mixer)
	return s, nil
}

func (s *Speaker) Bounce()    { s.play(BounceCue(SampleRate)) }
func (s *Speaker) Countdown() { s.play(CountdownCue(SampleRate)) }
func (s *Speaker) GameOver()  { s.play(GameOverCue(SampleRate)) }

// Close silences the speaker. Later cues are dropped.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	return nil
}

func (s *Speaker) play(st beep.Streamer) {
	if st == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// BounceCue is a short high blip.
func BounceCue(rate beep.SampleRate) beep.Streamer {
	return Tone(rate, 880, 60*time.Millisecond, 0.5)
}

// CountdownCue is a mid beep for each countdown second.
func CountdownCue(rate beep.SampleRate) beep.Streamer {
	return Tone(rate, 440, 120*time.Millisecond, 0.6)
}

// GameOverCue is a falling three-note phrase.
func GameOverCue(rate beep.SampleRate) beep.Streamer {
	notes := []float64{523.25, 392.00, 261.63}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, f := range notes {
		if t := Tone(rate, f, 180*time.Millisecond, 0.6); t != nil {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return beep.Seq(parts...)
}

// Tone returns a sine tone of the given length at volume in (0, 1], or nil
// if the frequency cannot be generated at rate.
func Tone(rate beep.SampleRate, freq float64, d time.Duration, volume float64) beep.Streamer {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil
	}
	return &effects.Volume{
		Streamer: beep.Take(rate.N(d), sine),
		Base:     2,
		Volume:   math.Log2(volume),
	}
}

// Observer maps loop events to bounce and countdown cues. The game-over cue
// is played by the caller once the result is saved.
func Observer(p Player) game.Observer {
	return func(_ game.Snapshot, ev game.Event) {
		if ev.Has(game.EventCountdown) {
			p.Countdown()
		}
		if ev.Has(game.EventBounce) {
			p.Bounce()
		}
	}
}
