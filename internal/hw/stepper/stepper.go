package stepper

import (
	"time"

	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/cjeanneret/LumiStep/internal/hw/gpio"
)

// Config holds the hardware configuration for a STEP/DIR stepper driver.
type Config struct {
	StepPin      int
	DirPin       int
	EnablePin    int   // A4988 ENABLE pin. 0 = not used. Active LOW (LOW=enabled).
	MaxPulseRate int32 // |SetSpeed| is clamped to this. 0 = no limit.
}

// Stepper is a constant-speed pulse generator. SetSpeed picks a signed rate
// in pulses per second; RunSpeed must then be called as often as possible
// and emits at most one STEP pulse per call, when the step interval has
// elapsed. Nothing in here sleeps.
type Stepper struct {
	gpio gpio.Driver
	cfg  Config

	speed    int32         // signed pulses/s
	interval time.Duration // time between two pulses, 0 when stopped
	lastStep time.Duration
	primed   bool // first pulse after a start is due immediately
	dirSet   bool
	forward  bool

	position int64
	faults   int
	lastErr  error
}

// NewStepper configures the pins and enables the driver. The enable pin is
// held active for the stepper's lifetime; Disable is meant for shutdown.
func NewStepper(g gpio.Driver, cfg Config) *Stepper {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)
	_ = g.WritePin(cfg.StepPin, gpio.Low)

	s := &Stepper{
		gpio: g,
		cfg:  cfg,
	}

	// A4988 ENABLE: active LOW. LOW = enabled, HIGH = disabled.
	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.Low) // enable by default
	}

	debug.Verbose("Stepper: step=%d dir=%d enable=%d max=%d pulses/s",
		cfg.StepPin, cfg.DirPin, cfg.EnablePin, cfg.MaxPulseRate)
	return s
}

// SetSpeed commands a signed pulse rate (positive = forward, DIR HIGH) and
// returns the rate actually applied after clamping to MaxPulseRate.
func (s *Stepper) SetSpeed(pps int32) int32 {
	if limit := s.cfg.MaxPulseRate; limit > 0 {
		if pps > limit {
			pps = limit
		} else if pps < -limit {
			pps = -limit
		}
	}
	if pps == s.speed {
		return pps
	}

	if pps != 0 {
		forward := pps > 0
		if !s.dirSet || forward != s.forward {
			s.record(s.gpio.WritePin(s.cfg.DirPin, gpio.Level(forward)))
			s.forward = forward
			s.dirSet = true
		}
		s.interval = time.Second / time.Duration(abs(pps))
		if s.speed == 0 {
			s.primed = true
		}
	} else {
		s.interval = 0
	}
	s.speed = pps
	return pps
}

// RunSpeed emits one STEP pulse if the motor is commanded to move and the
// step interval has elapsed since the previous pulse. It reports whether a
// pulse was emitted. now is a monotonic timestamp.
func (s *Stepper) RunSpeed(now time.Duration) bool {
	if s.speed == 0 {
		return false
	}
	if !s.primed && now-s.lastStep < s.interval {
		return false
	}
	s.primed = false
	s.lastStep = now
	s.pulse()
	return true
}

// pulse drives STEP high then low. The A4988 needs 1µs high; two GPIO
// writes already take longer than that on every supported backend.
func (s *Stepper) pulse() {
	s.record(s.gpio.WritePin(s.cfg.StepPin, gpio.High))
	s.record(s.gpio.WritePin(s.cfg.StepPin, gpio.Low))
	if s.forward {
		s.position++
	} else {
		s.position--
	}
}

func (s *Stepper) record(err error) {
	if err != nil {
		s.faults++
		s.lastErr = err
	}
}

// Speed returns the commanded signed pulse rate.
func (s *Stepper) Speed() int32 { return s.speed }

// Interval returns the time between two pulses at the current speed.
func (s *Stepper) Interval() time.Duration { return s.interval }

// Position returns the number of pulses emitted, signed by direction.
func (s *Stepper) Position() int64 { return s.position }

// Faults returns how many GPIO writes failed, and the last failure.
func (s *Stepper) Faults() (int, error) { return s.faults, s.lastErr }

// Enable turns on the motor driver (A4988 ENABLE=LOW). Motors hold position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (A4988 ENABLE=HIGH). Motors freewheel, no holding torque.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
