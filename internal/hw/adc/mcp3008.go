//go:build !tinygo

package adc

import (
	"fmt"

	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// MCP3008 reads one single-ended channel of an MCP3008 on SPI0 through
// go-rpio. The GPIO memory must already be mapped (gpio.NewRPiRealDriver).
type MCP3008 struct {
	channel int
	buf     [3]byte
}

// NewMCP3008 claims SPI0 with chip select 0 at speedHz.
func NewMCP3008(channel, speedHz int) (*MCP3008, error) {
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("mcp3008: channel must be 0-7, got %d", channel)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return nil, fmt.Errorf("mcp3008: begin spi: %w", err)
	}
	rpio.SpiSpeed(speedHz)
	rpio.SpiChipSelect(0)

	debug.Verbose("MCP3008 on SPI0 channel %d at %d Hz", channel, speedHz)
	return &MCP3008{channel: channel}, nil
}

// mcp3008Request fills buf with the single-ended read command for channel.
func mcp3008Request(buf *[3]byte, channel int) {
	// start bit, then single-ended mode and channel in the high nibble
	buf[0] = 0x01
	buf[1] = byte(0x80 | (channel&7)<<4)
	buf[2] = 0x00
}

// mcp3008Decode extracts the 10-bit result from the exchanged frame.
func mcp3008Decode(buf [3]byte) uint16 {
	return uint16(buf[1]&0x03)<<8 | uint16(buf[2])
}

func (m *MCP3008) ReadAnalog() (uint16, error) {
	mcp3008Request(&m.buf, m.channel)
	rpio.SpiExchange(m.buf[:])
	return mcp3008Decode(m.buf), nil
}

func (m *MCP3008) Max() uint16 { return 1023 }

// Close releases SPI0.
func (m *MCP3008) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return nil
}
