//go:build !tinygo

package gpio

import (
	"fmt"

	"github.com/cjeanneret/LumiStep/internal/debug"
)

// NewDriver creates a GPIO driver for the chosen backend:
// "mock" (dev/test), "rpio" (memory-mapped, Raspberry Pi) or
// "gpiocdev" (Linux GPIO character device).
func NewDriver(backend string) (Driver, error) {
	switch backend {
	case "mock":
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	case "rpio":
		return NewRPiRealDriver()
	case "gpiocdev":
		return NewCdevDriver("gpiochip0")
	default:
		return nil, fmt.Errorf("unsupported gpio backend on this build: %q", backend)
	}
}
