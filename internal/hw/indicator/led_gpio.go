package indicator

import (
	"fmt"
	"time"

	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/cjeanneret/LumiStep/internal/hw/gpio"
)

// LED is an Indicator driving one GPIO pin:
// - active high: pin HIGH lights the LED (anode on the pin)
// - active low: pin LOW lights the LED (cathode on the pin, Pico W style boards)
//
// The LED starts off.
type LED struct {
	gpio      gpio.Driver
	pin       int
	activeLow bool
	on        bool
}

// NewLED configures pin as an output and turns the LED off.
func NewLED(g gpio.Driver, pin int, activeLow bool) (*LED, error) {
	if err := g.SetupPin(pin, gpio.Output); err != nil {
		return nil, fmt.Errorf("setup status LED pin %d: %w", pin, err)
	}
	l := &LED{
		gpio:      g,
		pin:       pin,
		activeLow: activeLow,
	}
	if err := l.write(false); err != nil {
		return nil, fmt.Errorf("status LED off: %w", err)
	}
	return l, nil
}

// Set turns the LED on or off. Writes are skipped when the LED is already
// in the requested state.
func (l *LED) Set(on bool) error {
	if on == l.on {
		return nil
	}
	if err := l.write(on); err != nil {
		return err
	}
	l.on = on
	return nil
}

// On reports whether the LED is lit.
func (l *LED) On() bool {
	return l.on
}

func (l *LED) write(on bool) error {
	return l.gpio.WritePin(l.pin, gpio.Level(on != l.activeLow))
}

// Flash blinks ind n times: on for period, off for period. It blocks, so it
// is only meant for the boot sequence, before the control loop starts.
func Flash(ind Indicator, n int, period time.Duration) error {
	debug.Verbose("Status LED: flashing %d times (%v)", n, period)
	for i := 0; i < n; i++ {
		if err := ind.Set(true); err != nil {
			return err
		}
		time.Sleep(period)
		if err := ind.Set(false); err != nil {
			return err
		}
		time.Sleep(period)
	}
	return nil
}
