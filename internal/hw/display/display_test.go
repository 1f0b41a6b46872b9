package display

import (
	"errors"
	"image/color"
	"strings"
	"testing"
)

// plainDisplayer has no ClearBuffer, so Canvas must blank it pixel by pixel.
type plainDisplayer struct {
	fb *Framebuffer
}

func (p plainDisplayer) Size() (int16, int16)              { return p.fb.Size() }
func (p plainDisplayer) SetPixel(x, y int16, c color.RGBA) { p.fb.SetPixel(x, y, c) }
func (p plainDisplayer) Display() error                    { return p.fb.Display() }

func TestFramebuffer_SetPixelBounds(t *testing.T) {
	fb := NewFramebuffer(8, 4)

	fb.SetPixel(1, 2, On)
	fb.SetPixel(-1, 0, On)
	fb.SetPixel(8, 0, On)
	fb.SetPixel(0, 4, On)

	if !fb.Pixel(1, 2) {
		t.Error("pixel (1,2) should be lit")
	}
	if fb.Lit() != 1 {
		t.Errorf("Lit = %d, want 1 (out of range writes ignored)", fb.Lit())
	}

	fb.SetPixel(1, 2, Off)
	if fb.Pixel(1, 2) {
		t.Error("black should turn the pixel off")
	}
}

func TestFramebuffer_String(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.SetPixel(0, 0, On)
	fb.SetPixel(2, 1, On)

	want := "#..\n..#\n"
	if got := fb.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestFramebuffer_DisplayCallsFlush(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	var seen *Framebuffer
	fb.OnFlush = func(f *Framebuffer) error {
		seen = f
		return errors.New("nack")
	}

	if err := fb.Display(); err == nil {
		t.Error("expected flush error to propagate")
	}
	if seen != fb {
		t.Error("OnFlush should receive the framebuffer")
	}
	if fb.Flushes() != 1 {
		t.Errorf("Flushes = %d, want 1", fb.Flushes())
	}
}

func TestCanvas_PrintDrawsAndRecords(t *testing.T) {
	fb := NewFramebuffer(128, 64)
	c := NewCanvas(fb)

	c.ClearBuffer()
	c.SetCursor(0, 10)
	c.Print("STOPPED")

	if fb.Lit() == 0 {
		t.Error("Print should light pixels")
	}
	got := c.Transcript()
	if len(got) != 1 || got[0] != "STOPPED" {
		t.Errorf("Transcript = %v, want [STOPPED]", got)
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	fb := NewFramebuffer(32, 16)
	c := NewCanvas(fb)

	c.DrawLine(0, 5, 9, 5)

	for _, x := range []int16{0, 5, 9} {
		if !fb.Pixel(x, 5) {
			t.Errorf("pixel (%d,5) should be lit", x)
		}
	}
	if fb.Pixel(5, 6) || fb.Pixel(10, 5) {
		t.Error("line should not spill outside its span")
	}
}

func TestCanvas_ClearBufferResets(t *testing.T) {
	fb := NewFramebuffer(64, 16)
	c := NewCanvas(fb)
	c.SetCursor(0, 8)
	c.Print("X")
	c.DrawLine(0, 0, 10, 0)

	c.ClearBuffer()

	if fb.Lit() != 0 {
		t.Errorf("Lit after clear = %d, want 0", fb.Lit())
	}
	if len(c.Transcript()) != 0 {
		t.Error("transcript should be empty after clear")
	}
}

func TestCanvas_ClearWithoutClearer(t *testing.T) {
	fb := NewFramebuffer(16, 8)
	c := NewCanvas(plainDisplayer{fb: fb})
	c.DrawLine(0, 0, 15, 7)

	c.ClearBuffer()

	if fb.Lit() != 0 {
		t.Errorf("Lit after clear = %d, want 0", fb.Lit())
	}
}

func TestCanvas_SendBufferError(t *testing.T) {
	fb := NewFramebuffer(16, 8)
	fb.OnFlush = func(*Framebuffer) error { return errors.New("i2c: no ack") }
	c := NewCanvas(fb)

	err := c.SendBuffer()
	if err == nil || !strings.Contains(err.Error(), "no ack") {
		t.Errorf("SendBuffer error = %v, want transport error", err)
	}
}
