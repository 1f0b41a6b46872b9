package screen

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cjeanneret/LumiStep/internal/hw/display"
	"github.com/cjeanneret/LumiStep/internal/logic/motor"
	"github.com/cjeanneret/LumiStep/internal/logic/sensor"
	"tinygo.org/x/tinyfont"
)

// recordingSurface records the drawing calls in order.
type recordingSurface struct {
	ops     []string
	prints  []string
	sendErr error
}

func (s *recordingSurface) ClearBuffer()              { s.ops = append(s.ops, "clear") }
func (s *recordingSurface) SetFont(f tinyfont.Fonter) { s.ops = append(s.ops, "font") }
func (s *recordingSurface) SetCursor(x, y int16)      { s.ops = append(s.ops, "cursor") }
func (s *recordingSurface) Print(text string) {
	s.ops = append(s.ops, "print")
	s.prints = append(s.prints, text)
}
func (s *recordingSurface) DrawLine(x0, y0, x1, y1 int16) { s.ops = append(s.ops, "line") }
func (s *recordingSurface) SendBuffer() error {
	s.ops = append(s.ops, "send")
	return s.sendErr
}

var testInfo = Info{
	Width:         128,
	TargetRPM:     200,
	PulseRate:     5333,
	Acceleration:  800,
	SupplyVoltage: 12,
	Microsteps:    8,
}

func TestLayoutFor(t *testing.T) {
	if LayoutFor(motor.State{Running: true, CommandedPulseRate: 1}) != LayoutRunning {
		t.Error("running state should select the running layout")
	}
	if LayoutFor(motor.State{}) != LayoutIdle {
		t.Error("idle state should select the idle layout")
	}
}

func TestRender_RunningForward(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)

	st := motor.State{Running: true, Direction: motor.Forward, CommandedPulseRate: 5333}
	if err := r.Render(st, sensor.Sample{HasLight: true, AnalogIntensity: 700}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{
		"RUN >> FWD",
		"RPM 200",
		"FREQ 5333 HZ",
		"ACC 800  V 12.0  1/8",
		"MODE CONTINUOUS",
	}
	if !reflect.DeepEqual(s.prints, want) {
		t.Errorf("running screen = %q, want %q", s.prints, want)
	}
	if !reflect.DeepEqual(r.Rows(), want) {
		t.Errorf("Rows() = %q, want %q", r.Rows(), want)
	}
}

func TestRender_RunningReverseLabel(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)

	st := motor.State{Running: true, Direction: motor.Reverse, CommandedPulseRate: -5333}
	r.Render(st, sensor.Sample{})

	if s.prints[0] != "RUN << REV" {
		t.Errorf("direction label = %q, want RUN << REV", s.prints[0])
	}
}

func TestRender_IdleShowsNextDirection(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)

	st := motor.State{Direction: motor.Reverse}
	if err := r.Render(st, sensor.Sample{AnalogIntensity: 312}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{"STOPPED", "LIGHT 312", "NEXT: Reverse"}
	if !reflect.DeepEqual(s.prints, want) {
		t.Errorf("idle screen = %q, want %q", s.prints, want)
	}
}

func TestRender_CallSequence(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)
	r.Render(motor.State{}, sensor.Sample{})

	want := []string{
		"clear",
		"font", "cursor", "print",
		"font", "cursor", "print",
		"font", "cursor", "print",
		"line",
		"send",
	}
	if !reflect.DeepEqual(s.ops, want) {
		t.Errorf("ops = %v, want %v", s.ops, want)
	}
}

func TestRender_Idempotent(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)
	st := motor.State{Direction: motor.Forward}
	sample := sensor.Sample{AnalogIntensity: 50}

	r.Render(st, sample)
	first := append([]string(nil), s.ops...)
	firstPrints := append([]string(nil), s.prints...)
	s.ops, s.prints = nil, nil

	r.Render(st, sample)
	if !reflect.DeepEqual(s.ops, first) || !reflect.DeepEqual(s.prints, firstPrints) {
		t.Error("rendering the same state twice should draw the same screen")
	}
	if r.Renders() != 2 {
		t.Errorf("Renders = %d, want 2", r.Renders())
	}
}

func TestRender_TransportFailure(t *testing.T) {
	s := &recordingSurface{sendErr: errors.New("i2c: no ack")}
	r := NewRenderer(s, testInfo)

	err := r.Render(motor.State{}, sensor.Sample{})
	if err == nil || !strings.Contains(err.Error(), "no ack") {
		t.Fatalf("Render error = %v, want wrapped transport error", err)
	}
	sends := 0
	for _, op := range s.ops {
		if op == "send" {
			sends++
		}
	}
	if sends != 1 {
		t.Errorf("SendBuffer called %d times, want exactly 1 (no retry)", sends)
	}
	if r.Failures() != 1 || r.Renders() != 0 {
		t.Errorf("Failures/Renders = %d/%d, want 1/0", r.Failures(), r.Renders())
	}
}

func TestSplash(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, testInfo)

	if err := r.Splash(); err != nil {
		t.Fatalf("Splash: %v", err)
	}
	if s.prints[0] != "LUMISTEP" || s.prints[2] != "RPM 200  1/8" {
		t.Errorf("splash = %q", s.prints)
	}
}

func TestSplashRemaining(t *testing.T) {
	cases := []struct {
		elapsed, want time.Duration
	}{
		{0, 3 * time.Second},
		// three 100 ms LED flashes
		{600 * time.Millisecond, 2400 * time.Millisecond},
		{3 * time.Second, 0},
		{5 * time.Second, 0},
	}
	for _, tc := range cases {
		if got := SplashRemaining(tc.elapsed); got != tc.want {
			t.Errorf("SplashRemaining(%v) = %v, want %v", tc.elapsed, got, tc.want)
		}
	}
}

func TestRender_OnFramebufferCanvas(t *testing.T) {
	fb := display.NewFramebuffer(128, 64)
	r := NewRenderer(display.NewCanvas(fb), testInfo)

	if err := r.Render(motor.State{}, sensor.Sample{AnalogIntensity: 9}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if fb.Flushes() != 1 {
		t.Errorf("Flushes = %d, want 1", fb.Flushes())
	}
	// The separator rule under the banner spans the panel.
	if !fb.Pixel(0, 11) || !fb.Pixel(127, 11) {
		t.Error("separator rule should span the full width")
	}
}

func TestLayout_String(t *testing.T) {
	for l, want := range map[Layout]string{LayoutIdle: "idle", LayoutRunning: "running", LayoutSplash: "splash"} {
		if l.String() != want {
			t.Errorf("%d.String() = %q, want %q", l, l.String(), want)
		}
	}
}
