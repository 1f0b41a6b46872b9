package display

import (
	"image/color"
	"strings"
)

// Framebuffer is an in-memory 1-bit displayer. The host build uses it in
// place of a panel; Display hands the buffer to OnFlush.
type Framebuffer struct {
	width, height int16
	pix           []bool

	// OnFlush, if set, is called by Display with the framebuffer.
	OnFlush func(*Framebuffer) error

	flushes int
}

// NewFramebuffer allocates a width x height buffer, all pixels off.
func NewFramebuffer(width, height int16) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]bool, int(width)*int(height)),
	}
}

func (f *Framebuffer) Size() (x, y int16) {
	return f.width, f.height
}

// SetPixel lights the pixel for any non-black colour; out of range is ignored.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	f.pix[int(y)*int(f.width)+int(x)] = c.R != 0 || c.G != 0 || c.B != 0
}

func (f *Framebuffer) Display() error {
	f.flushes++
	if f.OnFlush != nil {
		return f.OnFlush(f)
	}
	return nil
}

func (f *Framebuffer) ClearBuffer() {
	for i := range f.pix {
		f.pix[i] = false
	}
}

// Pixel reports whether (x, y) is lit.
func (f *Framebuffer) Pixel(x, y int16) bool {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return false
	}
	return f.pix[int(y)*int(f.width)+int(x)]
}

// Lit returns the number of lit pixels.
func (f *Framebuffer) Lit() int {
	n := 0
	for _, p := range f.pix {
		if p {
			n++
		}
	}
	return n
}

// Flushes returns how many times Display was called.
func (f *Framebuffer) Flushes() int {
	return f.flushes
}

// String renders the buffer as text, '#' for lit pixels.
func (f *Framebuffer) String() string {
	var b strings.Builder
	b.Grow(int(f.width+1) * int(f.height))
	for y := int16(0); y < f.height; y++ {
		for x := int16(0); x < f.width; x++ {
			if f.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
