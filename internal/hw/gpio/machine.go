//go:build tinygo

package gpio

import (
	"fmt"
	"machine"
)

// MachineDriver drives the microcontroller's own pins through TinyGo's
// machine package. Pin numbers are the chip's GPIO numbers.
type MachineDriver struct{}

// NewMachineDriver returns the on-chip GPIO driver.
func NewMachineDriver() *MachineDriver {
	return &MachineDriver{}
}

func (d *MachineDriver) SetupPin(pin int, mode PinMode) error {
	p := machine.Pin(pin)
	switch mode {
	case Input:
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	case InputPullUp:
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	case Output:
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
	return nil
}

func (d *MachineDriver) WritePin(pin int, level Level) error {
	machine.Pin(pin).Set(bool(level))
	return nil
}

func (d *MachineDriver) ReadPin(pin int) (Level, error) {
	return Level(machine.Pin(pin).Get()), nil
}

func (d *MachineDriver) Close() error { return nil }
