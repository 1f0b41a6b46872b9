//go:build tinygo

package adc

import "machine"

// MachineADC reads an on-chip ADC pin. Samples are scaled by TinyGo to 16 bits.
type MachineADC struct {
	adc machine.ADC
}

// NewMachineADC initialises the converter and configures pin as analog input.
func NewMachineADC(pin machine.Pin) *MachineADC {
	machine.InitADC()
	a := machine.ADC{Pin: pin}
	a.Configure(machine.ADCConfig{})
	return &MachineADC{adc: a}
}

func (m *MachineADC) ReadAnalog() (uint16, error) {
	return m.adc.Get(), nil
}

func (m *MachineADC) Max() uint16 { return 0xFFFF }
