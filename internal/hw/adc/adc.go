// Package adc reads the light sensor's analog output.
package adc

import "errors"

// Reader samples one analog channel.
type Reader interface {
	// ReadAnalog returns a raw sample in [0, Max()].
	ReadAnalog() (uint16, error)
	// Max is the full-scale value of the converter.
	Max() uint16
}

// MockReader returns scripted samples. When the script is exhausted the
// last sample repeats.
type MockReader struct {
	Samples []uint16
	Full    uint16
	Err     error

	index int
	reads int
}

// NewMockReader creates a 10-bit MockReader with the given samples.
func NewMockReader(samples ...uint16) *MockReader {
	return &MockReader{Samples: samples, Full: 1023}
}

func (m *MockReader) ReadAnalog() (uint16, error) {
	m.reads++
	if m.Err != nil {
		return 0, m.Err
	}
	if len(m.Samples) == 0 {
		return 0, errors.New("adc: no samples configured")
	}
	v := m.Samples[m.index]
	if m.index < len(m.Samples)-1 {
		m.index++
	}
	return v, nil
}

func (m *MockReader) Max() uint16 { return m.Full }

// Reads returns how many times ReadAnalog was called.
func (m *MockReader) Reads() int { return m.reads }
