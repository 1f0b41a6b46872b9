// Package screen draws the status screens from the motor and sensor state.
package screen

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/cjeanneret/LumiStep/internal/logic/motor"
	"github.com/cjeanneret/LumiStep/internal/logic/sensor"
	"tinygo.org/x/tinyfont"
)

// Surface is the drawing contract of the display driver. Everything but
// SendBuffer works on a local buffer; SendBuffer is the slow bus transfer.
type Surface interface {
	ClearBuffer()
	SetFont(f tinyfont.Fonter)
	SetCursor(x, y int16)
	Print(text string)
	DrawLine(x0, y0, x1, y1 int16)
	SendBuffer() error
}

// Layout is one of the fixed screens.
type Layout int

const (
	LayoutIdle Layout = iota
	LayoutRunning
	LayoutSplash
)

func (l Layout) String() string {
	switch l {
	case LayoutRunning:
		return "running"
	case LayoutSplash:
		return "splash"
	default:
		return "idle"
	}
}

// LayoutFor picks the screen matching st.
func LayoutFor(st motor.State) Layout {
	if st.Running {
		return LayoutRunning
	}
	return LayoutIdle
}

// Info is the fixed, start-up derived data shown on the screens.
type Info struct {
	Width         int16 // panel width, for separator rules
	TargetRPM     int
	PulseRate     int32 // unsigned target rate
	Acceleration  int
	SupplyVoltage float64
	Microsteps    int
}

type view struct {
	state  motor.State
	sample sensor.Sample
	info   Info
}

type row struct {
	x, y int16 // y is the baseline
	font tinyfont.Fonter
	text func(v view) string
}

type template struct {
	rows  []row
	rules []int16 // full-width horizontal lines at these y
}

var (
	titleFont = &tinyfont.Org01
	smallFont = &tinyfont.TomThumb
)

func fixed(s string) func(view) string {
	return func(view) string { return s }
}

var templates = [...]template{
	LayoutRunning: {
		rows: []row{
			{0, 8, titleFont, func(v view) string {
				if v.state.Direction == motor.Reverse {
					return "RUN << REV"
				}
				return "RUN >> FWD"
			}},
			{0, 22, titleFont, func(v view) string { return "RPM " + strconv.Itoa(v.info.TargetRPM) }},
			{0, 32, titleFont, func(v view) string {
				return "FREQ " + strconv.FormatInt(int64(v.info.PulseRate), 10) + " HZ"
			}},
			{0, 44, smallFont, func(v view) string {
				return "ACC " + strconv.Itoa(v.info.Acceleration) +
					"  V " + strconv.FormatFloat(v.info.SupplyVoltage, 'f', 1, 64) +
					"  1/" + strconv.Itoa(v.info.Microsteps)
			}},
			{0, 60, titleFont, fixed("MODE CONTINUOUS")},
		},
		rules: []int16{11, 49},
	},
	LayoutIdle: {
		rows: []row{
			{0, 8, titleFont, fixed("STOPPED")},
			{0, 26, titleFont, func(v view) string {
				return "LIGHT " + strconv.Itoa(int(v.sample.AnalogIntensity))
			}},
			{0, 40, titleFont, func(v view) string { return "NEXT: " + v.state.Direction.String() }},
		},
		rules: []int16{11},
	},
	LayoutSplash: {
		rows: []row{
			{0, 8, titleFont, fixed("LUMISTEP")},
			{0, 24, titleFont, fixed("LIGHT STEPPER")},
			{0, 36, smallFont, func(v view) string {
				return "RPM " + strconv.Itoa(v.info.TargetRPM) + "  1/" + strconv.Itoa(v.info.Microsteps)
			}},
			{0, 60, titleFont, fixed("STARTING")},
		},
		rules: []int16{11},
	},
}

// Renderer draws the layouts onto a Surface. Render has no effect on the
// motor or sensor state; calling it twice with the same inputs draws the
// same screen.
type Renderer struct {
	surface Surface
	info    Info
	rows    []string

	renders  int
	failures int
}

// NewRenderer returns a Renderer for surface. A zero Width means 128.
func NewRenderer(surface Surface, info Info) *Renderer {
	if info.Width <= 0 {
		info.Width = 128
	}
	return &Renderer{
		surface: surface,
		info:    info,
	}
}

// Render draws the screen matching st. A transport failure is returned as
// is: the screen is not retried here.
func (r *Renderer) Render(st motor.State, sample sensor.Sample) error {
	return r.Draw(LayoutFor(st), st, sample)
}

// SplashHold is how long the start-up screen stays up before the first
// state screen replaces it.
const SplashHold = 3 * time.Second

// Splash draws the start-up screen.
func (r *Renderer) Splash() error {
	return r.Draw(LayoutSplash, motor.State{}, sensor.Sample{})
}

// SplashRemaining returns how much longer the start-up screen must stay up
// after being shown for elapsed.
func SplashRemaining(elapsed time.Duration) time.Duration {
	if elapsed >= SplashHold {
		return 0
	}
	return SplashHold - elapsed
}

// Draw renders layout l: clear, text rows, rules, send.
func (r *Renderer) Draw(l Layout, st motor.State, sample sensor.Sample) error {
	t := templates[l]
	v := view{state: st, sample: sample, info: r.info}

	r.surface.ClearBuffer()
	r.rows = r.rows[:0]
	for _, rw := range t.rows {
		text := rw.text(v)
		r.surface.SetFont(rw.font)
		r.surface.SetCursor(rw.x, rw.y)
		r.surface.Print(text)
		r.rows = append(r.rows, text)
	}
	for _, y := range t.rules {
		r.surface.DrawLine(0, y, r.info.Width-1, y)
	}

	if err := r.surface.SendBuffer(); err != nil {
		r.failures++
		return fmt.Errorf("send %s screen: %w", l, err)
	}
	r.renders++
	debug.Screen(l.String(), r.rows)
	return nil
}

// Rows returns the text of the last drawn screen, top to bottom.
func (r *Renderer) Rows() []string {
	out := make([]string, len(r.rows))
	copy(out, r.rows)
	return out
}

// Renders returns the number of screens successfully sent.
func (r *Renderer) Renders() int { return r.renders }

// Failures returns the number of screens the transport rejected.
func (r *Renderer) Failures() int { return r.failures }
