// Package sensor turns raw light sensor reads into light edges.
package sensor

import (
	"fmt"

	"github.com/cjeanneret/LumiStep/internal/hw/adc"
	"github.com/cjeanneret/LumiStep/internal/hw/gpio"
)

// Edge is a transition of the light state between two polls.
type Edge int

const (
	NoEdge Edge = iota
	LightAppeared
	LightLost
)

func (e Edge) String() string {
	switch e {
	case LightAppeared:
		return "LightAppeared"
	case LightLost:
		return "LightLost"
	default:
		return "NoEdge"
	}
}

// Sample is the most recent sensor reading.
type Sample struct {
	HasLight        bool   // digital output, polarity applied
	AnalogIntensity uint16 // raw ADC value, informational only
}

// Config describes how the sensor module is wired.
type Config struct {
	DigitalPin int
	// ActiveHigh selects the DO polarity. The common LM393 boards pull DO
	// low when light is present, so the default (false) is active-low.
	ActiveHigh bool
}

// Poller reads the sensor and reports edges against the previous reading.
// It does not rate-limit itself: the caller decides when to poll.
type Poller struct {
	gpio   gpio.Driver
	analog adc.Reader // nil when no analog channel is wired
	cfg    Config

	lastLight bool
	sample    Sample
	polls     int
}

// NewPoller sets up the digital pin as a pulled-up input. analog may be nil.
// The remembered light state starts as "no light", so a sensor that is
// already lit at start-up yields LightAppeared on the first poll.
func NewPoller(g gpio.Driver, analog adc.Reader, cfg Config) (*Poller, error) {
	if err := g.SetupPin(cfg.DigitalPin, gpio.InputPullUp); err != nil {
		return nil, fmt.Errorf("setup light sensor pin %d: %w", cfg.DigitalPin, err)
	}
	return &Poller{
		gpio:   g,
		analog: analog,
		cfg:    cfg,
	}, nil
}

// Poll reads the sensor once. It returns LightAppeared or LightLost exactly
// once per change of the digital reading, NoEdge otherwise. A failed
// digital read leaves the remembered state untouched and returns NoEdge.
// A failed analog read keeps the previous intensity; the edge is still
// reported alongside the error.
func (p *Poller) Poll() (Edge, error) {
	p.polls++

	level, err := p.gpio.ReadPin(p.cfg.DigitalPin)
	if err != nil {
		return NoEdge, fmt.Errorf("read light sensor: %w", err)
	}
	light := bool(level) == p.cfg.ActiveHigh

	var analogErr error
	if p.analog != nil {
		v, err := p.analog.ReadAnalog()
		if err != nil {
			analogErr = fmt.Errorf("read light intensity: %w", err)
		} else {
			p.sample.AnalogIntensity = v
		}
	}
	p.sample.HasLight = light

	if light == p.lastLight {
		return NoEdge, analogErr
	}
	p.lastLight = light
	if light {
		return LightAppeared, analogErr
	}
	return LightLost, analogErr
}

// Sample returns the latest reading.
func (p *Poller) Sample() Sample {
	return p.sample
}

// Polls returns how many times Poll was called.
func (p *Poller) Polls() int {
	return p.polls
}
