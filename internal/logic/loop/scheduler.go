// Package loop runs the cooperative control loop: one Tick per iteration,
// stepper pulses first, everything else gated by elapsed time.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/LumiStep/internal/config"
	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/cjeanneret/LumiStep/internal/hw/indicator"
	"github.com/cjeanneret/LumiStep/internal/logic/motor"
	"github.com/cjeanneret/LumiStep/internal/logic/sensor"
)

// Clock returns a monotonic timestamp.
type Clock interface {
	Now() time.Duration
}

// SystemClock measures time since its creation.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// PulseGenerator emits at most one step pulse per call, when one is due.
type PulseGenerator interface {
	RunSpeed(now time.Duration) bool
}

// EdgeSource is the polled light sensor.
type EdgeSource interface {
	Poll() (sensor.Edge, error)
	Sample() sensor.Sample
}

// Transitioner is the motor state machine.
type Transitioner interface {
	OnEdge(e sensor.Edge) (motor.State, motor.DisplayRequest)
	State() motor.State
}

// Renderer draws the screen for a state. It may be slow (bus transfer).
type Renderer interface {
	Render(st motor.State, sample sensor.Sample) error
}

// Timing holds the periods gating each activity.
type Timing struct {
	Sensor  time.Duration // light sensor poll
	Display time.Duration // idle screen heartbeat
	Status  time.Duration // idle status line
	Blink   time.Duration // idle LED toggle
}

// TimingFromConfig reads the periods from cfg.
func TimingFromConfig(cfg *config.Config) Timing {
	return Timing{
		Sensor:  cfg.SensorInterval(),
		Display: cfg.DisplayInterval(),
		Status:  cfg.StatusInterval(),
		Blink:   cfg.BlinkInterval(),
	}
}

// Parts are the components the scheduler drives. Display and LED may be nil.
type Parts struct {
	Pulses  PulseGenerator
	Sensor  EdgeSource
	Motor   Transitioner
	Display Renderer
	LED     indicator.Indicator
}

// Stats counts what the scheduler did.
type Stats struct {
	Ticks          int
	Pulses         int // pulses actually emitted
	Polls          int
	Edges          int // non-NoEdge polls
	Transitions    int
	Renders        int
	RenderFailures int
	SensorFaults   int
}

// Scheduler owns the loop timers and the idle screen bookkeeping. All of it
// is touched from the goroutine calling Tick only.
type Scheduler struct {
	parts  Parts
	timing Timing

	lastSensorCheck   time.Duration
	lastDisplayUpdate time.Duration
	lastStatus        time.Duration
	lastBlink         time.Duration

	// dirty is set when the idle screen no longer matches what was sent:
	// the analog intensity moved, or the last render failed.
	dirty      bool
	shownLight uint16
	ledOn      bool
	stats      Stats
}

// New returns a Scheduler with all timers at zero.
func New(parts Parts, timing Timing) *Scheduler {
	if parts.LED == nil {
		parts.LED = indicator.None{}
	}
	return &Scheduler{
		parts:  parts,
		timing: timing,
	}
}

// Start draws the screen for the current state and restarts every timer
// at now. It is called once, before the first Tick.
func (s *Scheduler) Start(now time.Duration) error {
	s.lastSensorCheck = now
	s.lastDisplayUpdate = now
	s.lastStatus = now
	s.lastBlink = now
	return s.render(s.parts.Motor.State())
}

// Tick runs one loop iteration, in priority order.
//
// Running: service the pulse generator, then poll the sensor if the poll
// period has elapsed. Nothing else runs, except the render a transition
// asks for.
//
// Idle: poll the sensor if due, then the idle heartbeat (screen refresh
// when dirty, status line, LED blink), each on its own period.
func (s *Scheduler) Tick(now time.Duration) {
	s.stats.Ticks++

	if s.parts.Motor.State().Running {
		if s.parts.Pulses.RunSpeed(now) {
			s.stats.Pulses++
		}
		s.pollIfDue(now)
		return
	}

	s.pollIfDue(now)
	if s.parts.Motor.State().Running {
		return
	}
	s.refreshIfDue(now)
	s.reportIfDue(now)
	s.blinkIfDue(now)
}

// Run calls Tick until ctx is cancelled. It never sleeps.
func (s *Scheduler) Run(ctx context.Context, clock Clock) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Tick(clock.Now())
	}
}

func (s *Scheduler) pollIfDue(now time.Duration) {
	if now-s.lastSensorCheck < s.timing.Sensor {
		return
	}
	s.lastSensorCheck = now
	s.stats.Polls++

	edge, err := s.parts.Sensor.Poll()
	if err != nil {
		s.stats.SensorFaults++
		if !s.parts.Motor.State().Running {
			debug.Error(err)
		}
	}
	if edge == sensor.NoEdge {
		return
	}
	s.stats.Edges++

	from := s.parts.Motor.State()
	st, req := s.parts.Motor.OnEdge(edge)
	if req == motor.RenderNone {
		return
	}
	s.stats.Transitions++
	if debug.IsEnabled(debug.LevelInfo) {
		debug.Transition(edge.String(), from.String(), st.String())
	}

	s.indicate(st.Running, now)
	if err := s.render(st); err != nil {
		debug.Warn("%v", err)
	}
}

// refreshIfDue redraws the idle screen on the heartbeat, only when what it
// shows has changed or the previous send failed.
func (s *Scheduler) refreshIfDue(now time.Duration) {
	if now-s.lastDisplayUpdate < s.timing.Display {
		return
	}
	s.lastDisplayUpdate = now

	light := s.parts.Sensor.Sample().AnalogIntensity
	if light != s.shownLight {
		s.dirty = true
	}
	if !s.dirty {
		return
	}
	debug.Live("idle refresh: light %d -> %d", s.shownLight, light)
	if err := s.render(s.parts.Motor.State()); err != nil {
		debug.Warn("%v", err)
	}
}

func (s *Scheduler) reportIfDue(now time.Duration) {
	if now-s.lastStatus < s.timing.Status {
		return
	}
	s.lastStatus = now
	if !debug.IsEnabled(debug.LevelLive) {
		return
	}
	st := s.parts.Motor.State()
	sample := s.parts.Sensor.Sample()
	debug.Status(fmt.Sprintf("%s light=%t intensity=%d polls=%d transitions=%d pulses=%d",
		st, sample.HasLight, sample.AnalogIntensity, s.stats.Polls, s.stats.Transitions, s.stats.Pulses))
}

func (s *Scheduler) blinkIfDue(now time.Duration) {
	if now-s.lastBlink < s.timing.Blink {
		return
	}
	s.lastBlink = now
	s.setLED(!s.ledOn)
}

// indicate puts the LED in the state matching a transition: solid while
// running, blinking from off while idle.
func (s *Scheduler) indicate(running bool, now time.Duration) {
	s.lastBlink = now
	s.setLED(running)
}

func (s *Scheduler) setLED(on bool) {
	if err := s.parts.LED.Set(on); err != nil {
		return
	}
	s.ledOn = on
}

func (s *Scheduler) render(st motor.State) error {
	if s.parts.Display == nil {
		return nil
	}
	sample := s.parts.Sensor.Sample()
	if err := s.parts.Display.Render(st, sample); err != nil {
		s.stats.RenderFailures++
		s.dirty = true
		return err
	}
	s.stats.Renders++
	s.dirty = false
	s.shownLight = sample.AnalogIntensity
	return nil
}

// Stats returns the counters so far.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// LED reports whether the status light is currently on.
func (s *Scheduler) LED() bool {
	return s.ledOn
}
