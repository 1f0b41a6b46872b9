package indicator

// Indicator is a single on/off status light, regardless of how it's
// wired (GPIO pin, on-board LED, nothing at all).
type Indicator interface {
	// Set turns the light on or off.
	Set(on bool) error
}

// None is an Indicator for boards without a status light.
type None struct{}

func (None) Set(bool) error { return nil }
