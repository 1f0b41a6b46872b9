package gpio

import (
	"errors"

	"github.com/cjeanneret/LumiStep/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
	InputPullUp // open-drain sensor outputs (LM393 comparator boards)
)

// ErrUnsupported is returned by backends that cannot run on this platform.
var ErrUnsupported = errors.New("gpio: backend not supported on this platform")

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real implementation (go-rpio, gpiocdev,
// TinyGo machine) or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// MockDriver is a test implementation that logs actions and keeps pin
// levels in memory. Written levels can be read back; input levels are
// scripted with SetLevel.
type MockDriver struct {
	levels map[int]Level
	modes  map[int]PinMode

	// Writes counts WritePin calls per pin.
	Writes map[int]int

	// ReadError, if set, is returned by ReadPin.
	ReadError error
	// WriteError, if set, is returned by WritePin.
	WriteError error
}

// NewMockDriver returns a MockDriver with every pin reading Low.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		levels: make(map[int]Level),
		modes:  make(map[int]PinMode),
		Writes: make(map[int]int),
	}
}

func (m *MockDriver) init() {
	if m.levels == nil {
		m.levels = make(map[int]Level)
		m.modes = make(map[int]PinMode)
		m.Writes = make(map[int]int)
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	m.init()
	debug.GPIO("SetupPin", pin, mode)
	m.modes[pin] = mode
	if mode == InputPullUp {
		m.levels[pin] = High
	}
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	m.init()
	debug.GPIO("WritePin", pin, level)
	if m.WriteError != nil {
		return m.WriteError
	}
	m.levels[pin] = level
	m.Writes[pin]++
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	m.init()
	debug.GPIO("ReadPin", pin, nil)
	if m.ReadError != nil {
		return Low, m.ReadError
	}
	return m.levels[pin], nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}

// SetLevel scripts the level returned by ReadPin for pin.
func (m *MockDriver) SetLevel(pin int, level Level) {
	m.init()
	m.levels[pin] = level
}

// Level returns the last level written to (or scripted for) pin.
func (m *MockDriver) Level(pin int) Level {
	m.init()
	return m.levels[pin]
}

// Mode returns the mode pin was set up with, and whether it was set up at all.
func (m *MockDriver) Mode(pin int) (PinMode, bool) {
	m.init()
	mode, ok := m.modes[pin]
	return mode, ok
}
