// Package render draws game snapshots: onto an OpenCV canvas that is encoded
// to JPEG for the browser stream, or onto a terminal.
package render

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airjuggler/internal/game"
)

// Colors used on the canvas.
var (
	SkyColor   = color.RGBA{R: 0x73, G: 0xb7, B: 0xff, A: 0xff}
	TextColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ReadyColor = color.RGBA{R: 0xe5, G: 0xd8, B: 0xab, A: 0xff}
	CountColor = game.BallColor
)

// OverlayAlpha is the opacity of the black layer behind overlay text.
const OverlayAlpha = 0.43

const (
	blockBorder = 3
	fontFace    = gocv.FontHersheySimplex
)

// FrameSource supplies the most recent camera frame, if any.
// capture.FrameBuffer satisfies it.
type FrameSource interface {
	CopyTo(dst *gocv.Mat) bool
}

// Canvas renders snapshots into an image and keeps the latest JPEG encoding.
// Render is called from the loop goroutine; Frame may be called from any.
type Canvas struct {
	width  int
	height int
	frames FrameSource
	mirror bool

	canvas gocv.Mat
	video  gocv.Mat
	shade  gocv.Mat

	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewCanvas creates a canvas of the given size. frames may be nil, in which
// case the sky background is always used. When mirror is set the video is
// flipped horizontally to match mirrored paddle positions.
func NewCanvas(width, height int, frames FrameSource, mirror bool) *Canvas {
	return &Canvas{
		width:   width,
		height:  height,
		frames:  frames,
		mirror:  mirror,
		canvas:  gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		video:   gocv.NewMat(),
		shade:   gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		updated: make(chan struct{}),
	}
}

// Render draws snap and stores its JPEG encoding.
func (c *Canvas) Render(snap game.Snapshot) {
	c.drawBackground()

	for _, b := range snap.Balls {
		c.drawBall(b)
	}
	for i, h := range snap.Hands {
		c.drawPaddle(i, h.X, h.Y, snap.HandSize)
	}

	switch snap.Phase {
	case game.PhaseCountingDown:
		c.drawCountdown(snap.CountdownLabel())
	case game.PhaseRunning:
		c.drawScore(snap.Score)
	case game.PhaseOver:
		c.drawGameOver(snap)
	}

	c.publish()
}

// Idle draws the bare background so the stream has a picture before the
// first session.
func (c *Canvas) Idle() {
	c.drawBackground()
	c.publish()
}

// publish encodes the canvas and wakes Updated waiters.
func (c *Canvas) publish() {
	buf, err := gocv.IMEncode(".jpg", c.canvas)
	if err != nil {
		log.Printf("Canvas encode error: %v", err)
		return
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	c.mu.Lock()
	c.jpeg = data
	c.seq++
	close(c.updated)
	c.updated = make(chan struct{})
	c.mu.Unlock()
}

// Frame returns the latest JPEG and its sequence number. The sequence is 0
// before the first render.
func (c *Canvas) Frame() ([]byte, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jpeg, c.seq
}

// Updated returns a channel closed at the next Render.
func (c *Canvas) Updated() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// Close releases the OpenCV buffers.
func (c *Canvas) Close() error {
	c.canvas.Close()
	c.video.Close()
	c.shade.Close()
	return nil
}

func (c *Canvas) drawBackground() {
	if c.frames != nil && c.frames.CopyTo(&c.video) && !c.video.Empty() {
		if c.mirror {
			gocv.Flip(c.video, &c.video, 1)
		}
		if c.video.Cols() != c.width || c.video.Rows() != c.height {
			gocv.Resize(c.video, &c.video, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)
		}
		c.video.CopyTo(&c.canvas)
		return
	}

	c.canvas.SetTo(scalar(SkyColor))
}

func (c *Canvas) drawBall(b game.Ball) {
	fill := b.Color
	if fill == (color.RGBA{}) {
		fill = game.BallColor
	}
	c.drawBlock(b.X, b.Y, b.Size, fill)
}

func (c *Canvas) drawPaddle(i int, x, y, size float64) {
	r := c.drawBlock(x, y, size, game.PaddleColor)

	label := fmt.Sprintf("Hand %d", i+1)
	gocv.PutText(&c.canvas, label, image.Pt(r.Min.X, r.Min.Y-8), fontFace, 0.5, TextColor, 1)
}

// drawBlock draws a filled square with a grey border.
func (c *Canvas) drawBlock(x, y, size float64, fill color.RGBA) image.Rectangle {
	r := centeredRect(x, y, size)
	gocv.Rectangle(&c.canvas, r, fill, -1)
	gocv.Rectangle(&c.canvas, r, game.BorderColor, blockBorder)
	return r
}

func (c *Canvas) drawScore(score int) {
	gocv.PutText(&c.canvas, fmt.Sprintf("Score: %d", score), image.Pt(12, 32), fontFace, 0.9, TextColor, 2)
}

func (c *Canvas) drawCountdown(n int) {
	c.shadeCanvas()
	c.centerText(fmt.Sprintf("%d", n), c.height/2, 3.0, 6, CountColor)
	c.centerText("Get Ready!", c.height/2+60, 1.2, 2, ReadyColor)
}

func (c *Canvas) drawGameOver(snap game.Snapshot) {
	c.shadeCanvas()
	outcome := game.NewOutcome(snap.SessionID, snap.Score)
	c.centerText(outcome.Message, c.height/2-20, 1.6, 3, TextColor)
	c.centerText(fmt.Sprintf("You survived %d seconds", snap.Score), c.height/2+30, 0.9, 2, TextColor)
}

// shadeCanvas darkens the canvas with a translucent black layer.
func (c *Canvas) shadeCanvas() {
	c.shade.SetTo(gocv.NewScalar(0, 0, 0, 0))
	gocv.AddWeighted(c.canvas, 1-OverlayAlpha, c.shade, OverlayAlpha, 0, &c.canvas)
}

func (c *Canvas) centerText(text string, baseline int, scale float64, thickness int, col color.RGBA) {
	size := gocv.GetTextSize(text, fontFace, scale, thickness)
	org := image.Pt((c.width-size.X)/2, baseline)
	gocv.PutText(&c.canvas, text, org, fontFace, scale, col, thickness)
}

// centeredRect returns the square of the given size centered on (x, y).
func centeredRect(x, y, size float64) image.Rectangle {
	half := size / 2
	return image.Rect(
		int(math.Round(x-half)), int(math.Round(y-half)),
		int(math.Round(x+half)), int(math.Round(y+half)),
	)
}

// scalar converts an RGBA color into OpenCV's BGR order.
func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}
