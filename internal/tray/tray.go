// Package tray provides a system tray menu for Air Juggler.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onStart func()
	onOpen  func()
	onClear func()
	onQuit  func()
	playing bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStart     *systray.MenuItem
	menuLastScore *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnStart sets the callback function to be called when Start Game is clicked.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnOpen sets the callback function to be called when Open Game is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnClear sets the callback function to be called when Clear Leaderboard is
// clicked.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Air Juggler")
	systray.SetTooltip("Air Juggler - keep the ball up with your hands")

	t.mu.Lock()
	t.menuStart = systray.AddMenuItem("Start Game", "Start a new game")
	systray.AddSeparator()

	t.menuLastScore = systray.AddMenuItem(lastScoreTitle(-1, 0), "Score of the last game")
	t.menuLastScore.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open Game...", "Open the game in a browser")
	menuClear := systray.AddMenuItem("Clear Leaderboard", "Forget all best scores")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Air Juggler")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuStart.ClickedCh:
				t.handle(func() func() { return t.onStart })
			case <-menuOpen.ClickedCh:
				t.handle(func() func() { return t.onOpen })
			case <-menuClear.ClickedCh:
				t.handle(func() func() { return t.onClear })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handle runs the callback returned by pick, read under the lock and called
// outside it to prevent deadlocks.
func (t *Tray) handle(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.handle(func() func() { return t.onQuit })
	systray.Quit()
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetPlaying greys out Start Game while a session runs.
func (t *Tray) SetPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.playing = playing
	if t.menuStart == nil {
		return
	}
	if playing {
		t.menuStart.SetTitle("Playing...")
		t.menuStart.Disable()
	} else {
		t.menuStart.SetTitle("Start Game")
		t.menuStart.Enable()
	}
}

// SetLastScore updates the last score display. rank is the leaderboard
// position, 0 if the score did not place.
func (t *Tray) SetLastScore(score, rank int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastScore != nil {
		t.menuLastScore.SetTitle(lastScoreTitle(score, rank))
	}
}

// IsPlaying reports whether a session is marked as running.
func (t *Tray) IsPlaying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}

// lastScoreTitle formats the last score menu item; a negative score means no
// game has been played.
func lastScoreTitle(score, rank int) string {
	switch {
	case score < 0:
		return "Last: none"
	case rank > 0:
		return fmt.Sprintf("Last: %ds (#%d)", score, rank)
	default:
		return fmt.Sprintf("Last: %ds", score)
	}
}
