//go:build !linux && !tinygo

package gpio

// CdevDriver is not available on non-Linux platforms.
type CdevDriver struct{}

// NewCdevDriver returns ErrUnsupported on non-Linux platforms.
func NewCdevDriver(chipName string) (*CdevDriver, error) {
	return nil, ErrUnsupported
}

func (c *CdevDriver) SetupPin(pin int, mode PinMode) error { return ErrUnsupported }

func (c *CdevDriver) WritePin(pin int, level Level) error { return ErrUnsupported }

func (c *CdevDriver) ReadPin(pin int) (Level, error) { return Low, ErrUnsupported }

func (c *CdevDriver) Close() error { return nil }
