//go:build linux && !tinygo

package gpio

import (
	"fmt"

	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/warthog618/go-gpiocdev"
)

// CdevDriver drives GPIOs through the Linux GPIO character device.
// Unlike go-rpio it works on any board exposing /dev/gpiochipN and does not
// need /dev/gpiomem.
type CdevDriver struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewCdevDriver opens the named chip (usually "gpiochip0").
func NewCdevDriver(chipName string) (*CdevDriver, error) {
	debug.Info("Initializing GPIO character device driver (%s)", chipName)

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &CdevDriver{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

func lineOptions(mode PinMode) ([]gpiocdev.LineReqOption, error) {
	switch mode {
	case Input:
		return []gpiocdev.LineReqOption{gpiocdev.AsInput}, nil
	case InputPullUp:
		return []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}, nil
	case Output:
		return []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}, nil
	default:
		return nil, fmt.Errorf("unknown pin mode: %d", mode)
	}
}

func (c *CdevDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	opts, err := lineOptions(mode)
	if err != nil {
		return err
	}

	if line, ok := c.lines[pin]; ok {
		if err := line.Close(); err != nil {
			return fmt.Errorf("release pin %d: %w", pin, err)
		}
		delete(c.lines, pin)
	}

	line, err := c.chip.RequestLine(pin, opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	c.lines[pin] = line
	return nil
}

func (c *CdevDriver) WritePin(pin int, level Level) error {
	line, ok := c.lines[pin]
	if !ok {
		if err := c.SetupPin(pin, Output); err != nil {
			return err
		}
		line = c.lines[pin]
	}

	v := 0
	if level == High {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

func (c *CdevDriver) ReadPin(pin int) (Level, error) {
	line, ok := c.lines[pin]
	if !ok {
		if err := c.SetupPin(pin, Input); err != nil {
			return Low, err
		}
		line = c.lines[pin]
	}

	v, err := line.Value()
	if err != nil {
		return Low, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return Level(v != 0), nil
}

// Close returns every requested line to input and releases the chip.
func (c *CdevDriver) Close() error {
	debug.Trace("GPIO Close (gpiocdev)")

	var errs []error
	for pin, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
