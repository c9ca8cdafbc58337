package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/airjuggler/internal/game"
)

// Terminal cell glyphs.
const (
	BallRune   = '█'
	PaddleRune = '▀'
)

var (
	ballStyle   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xff, 0xd7, 0x00))
	paddleStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0x5e, 0xaa, 0x46))
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	readyStyle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xe5, 0xd8, 0xab))
)

// Terminal draws snapshots onto a tcell screen. The canvas is scaled onto
// every row but the last, which holds the status line.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal wraps an initialized screen.
func NewTerminal(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Render draws snap and shows the screen.
func (t *Terminal) Render(snap game.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	cols, rows := t.screen.Size()
	field := rows - 1
	if cols <= 0 || field <= 0 || snap.Width <= 0 || snap.Height <= 0 {
		return
	}

	for _, h := range snap.Hands {
		t.fill(h.X, h.Y, snap.HandSize, snap, cols, field, PaddleRune, paddleStyle)
	}
	for _, b := range snap.Balls {
		t.fill(b.X, b.Y, b.Size, snap, cols, field, BallRune, ballStyle)
	}

	t.text(0, field, statusLine(snap), statusStyle)
	if snap.Phase == game.PhaseCountingDown {
		msg := fmt.Sprintf("%d  Get Ready!", snap.CountdownLabel())
		t.text((cols-len(msg))/2, field/2, msg, readyStyle)
	}

	t.screen.Show()
}

// fill paints the cells covered by a square of the given canvas size. A block
// always covers at least one cell.
func (t *Terminal) fill(x, y, size float64, snap game.Snapshot, cols, rows int, r rune, style tcell.Style) {
	sx := float64(cols) / snap.Width
	sy := float64(rows) / snap.Height

	x0 := int(math.Floor((x - size/2) * sx))
	x1 := int(math.Ceil((x+size/2)*sx)) - 1
	y0 := int(math.Floor((y - size/2) * sy))
	y1 := int(math.Ceil((y+size/2)*sy)) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	for cy := max(y0, 0); cy <= min(y1, rows-1); cy++ {
		for cx := max(x0, 0); cx <= min(x1, cols-1); cx++ {
			t.screen.SetContent(cx, cy, r, nil, style)
		}
	}
}

func (t *Terminal) text(x, y int, s string, style tcell.Style) {
	if x < 0 {
		x = 0
	}
	for i, r := range []rune(s) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

func statusLine(snap game.Snapshot) string {
	switch snap.Phase {
	case game.PhaseCountingDown:
		return fmt.Sprintf("Air Juggler  starting in %d", snap.CountdownLabel())
	case game.PhaseOver:
		o := game.NewOutcome(snap.SessionID, snap.Score)
		return fmt.Sprintf("%s You survived %d seconds", o.Message, snap.Score)
	default:
		return fmt.Sprintf("Score: %d", snap.Score)
	}
}
