//go:build tinygo

package display

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"
)

// NewSSD1306 brings up an SSD1306 OLED on an already configured I2C bus and
// blanks it.
func NewSSD1306(bus drivers.I2C, width, height int16, address uint16) *ssd1306.Device {
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{
		Width:    width,
		Height:   height,
		Address:  address,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	dev.ClearBuffer()
	dev.ClearDisplay()
	return dev
}
