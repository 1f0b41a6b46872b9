// Package display provides text-and-line drawing on monochrome displays.
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
)

var (
	On  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Off = color.RGBA{A: 255}
)

// Clearer is implemented by displayers that can blank their buffer in one
// call (ssd1306.Device, Framebuffer).
type Clearer interface {
	ClearBuffer()
}

// Canvas draws text and lines into a displayer's buffer. Nothing reaches the
// panel until SendBuffer, which is the only call that touches the bus.
type Canvas struct {
	dev    drivers.Displayer
	font   tinyfont.Fonter
	x, y   int16
	color  color.RGBA
	prints []string
}

// NewCanvas wraps dev. The default font is Org01.
func NewCanvas(dev drivers.Displayer) *Canvas {
	return &Canvas{
		dev:   dev,
		font:  &tinyfont.Org01,
		color: On,
	}
}

// ClearBuffer blanks the local buffer and the print transcript.
func (c *Canvas) ClearBuffer() {
	if cl, ok := c.dev.(Clearer); ok {
		cl.ClearBuffer()
	} else {
		w, h := c.dev.Size()
		for y := int16(0); y < h; y++ {
			for x := int16(0); x < w; x++ {
				c.dev.SetPixel(x, y, Off)
			}
		}
	}
	c.x, c.y = 0, 0
	c.prints = c.prints[:0]
}

// SetFont selects the font used by Print.
func (c *Canvas) SetFont(f tinyfont.Fonter) {
	c.font = f
}

// SetCursor moves the text origin. y is the text baseline.
func (c *Canvas) SetCursor(x, y int16) {
	c.x, c.y = x, y
}

// Print draws text at the cursor and advances the cursor past it.
func (c *Canvas) Print(text string) {
	tinyfont.WriteLine(c.dev, c.font, c.x, c.y, text, c.color)
	_, w := tinyfont.LineWidth(c.font, text)
	c.x += int16(w)
	c.prints = append(c.prints, text)
}

// DrawLine draws a one pixel line.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int16) {
	tinydraw.Line(c.dev, x0, y0, x1, y1, c.color)
}

// SendBuffer pushes the buffer to the panel.
func (c *Canvas) SendBuffer() error {
	return c.dev.Display()
}

// Size returns the panel size in pixels.
func (c *Canvas) Size() (int16, int16) {
	return c.dev.Size()
}

// Transcript returns the strings printed since the last ClearBuffer.
func (c *Canvas) Transcript() []string {
	out := make([]string, len(c.prints))
	copy(out, c.prints)
	return out
}
