package config

import (
	"fmt"
	"math"
	"time"
)

// MotorConfig holds the configuration for the stepper motor and its driver.
type MotorConfig struct {
	StepPin       int     `yaml:"step_pin"`
	DirPin        int     `yaml:"dir_pin"`
	EnablePin     int     `yaml:"enable_pin"` // A4988 ENABLE pin. 0 = not used. Active LOW.
	StepsPerRev   int     `yaml:"steps_per_rev"`
	Microstepping int     `yaml:"microstepping"`
	TargetRPM     int     `yaml:"target_rpm"`
	MaxPulseRate  int     `yaml:"max_pulse_rate"` // driver limit in pulses/s; higher targets are clamped
	Acceleration  int     `yaml:"acceleration"`   // informational only, shown on the running screen
	SupplyVoltage float64 `yaml:"supply_voltage"` // informational only
}

// LightSensorConfig describes the light sensor module (digital DO + optional analog AO).
type LightSensorConfig struct {
	DigitalPin int    `yaml:"digital_pin"`
	ActiveHigh bool   `yaml:"active_high"` // false: a LOW level on DO means light present
	ADC        string `yaml:"adc"`         // "none", "mock", "mcp3008" or "machine"
	ADCChannel int    `yaml:"adc_channel"` // MCP3008 channel 0-7
	SPISpeedHz int    `yaml:"spi_speed_hz"`
}

// DisplayConfig selects the status display.
type DisplayConfig struct {
	Type    string `yaml:"type"` // "none", "framebuffer" or "ssd1306"
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Address uint16 `yaml:"address"` // I2C address
}

// StatusLEDConfig describes the optional heartbeat LED.
type StatusLEDConfig struct {
	Pin       int  `yaml:"pin"` // 0 = not used
	ActiveLow bool `yaml:"active_low"`
}

// TimingConfig holds the periods gating each cooperative activity.
type TimingConfig struct {
	SensorIntervalMs  int `yaml:"sensor_interval_ms"`
	DisplayIntervalMs int `yaml:"display_interval_ms"`
	StatusIntervalMs  int `yaml:"status_interval_ms"`
	BlinkIntervalMs   int `yaml:"blink_interval_ms"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel  int    `yaml:"debug_level"`  // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	GPIOBackend string `yaml:"gpio_backend"` // "mock", "rpio", "gpiocdev" or "machine"
}

// Config aggregates all application configuration.
type Config struct {
	Motor       MotorConfig       `yaml:"motor"`
	LightSensor LightSensorConfig `yaml:"light_sensor"`
	Display     DisplayConfig     `yaml:"display"`
	StatusLED   StatusLEDConfig   `yaml:"status_led"`
	Timing      TimingConfig      `yaml:"timing"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
}

// Default returns the compiled-in configuration: 200 RPM on a 200 step motor
// at 1/8 microstepping, polled every 50 ms.
func Default() *Config {
	cfg := &Config{
		Motor: MotorConfig{
			StepPin:   17,
			DirPin:    27,
			EnablePin: 22,
		},
		LightSensor: LightSensorConfig{
			DigitalPin: 23,
		},
		Defaults: DefaultsConfig{
			DebugLevel: 1,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero value that has a sensible default.
func ApplyDefaults(cfg *Config) {
	if cfg.Motor.StepsPerRev <= 0 {
		cfg.Motor.StepsPerRev = 200
	}
	if cfg.Motor.Microstepping <= 0 {
		cfg.Motor.Microstepping = 8
	}
	if cfg.Motor.TargetRPM <= 0 {
		cfg.Motor.TargetRPM = 200
	}
	if cfg.Motor.MaxPulseRate <= 0 {
		cfg.Motor.MaxPulseRate = 10000
	}
	if cfg.Motor.Acceleration <= 0 {
		cfg.Motor.Acceleration = 800
	}
	if cfg.Motor.SupplyVoltage <= 0 {
		cfg.Motor.SupplyVoltage = 12
	}

	if cfg.LightSensor.ADC == "" {
		cfg.LightSensor.ADC = "none"
	}
	if cfg.LightSensor.SPISpeedHz <= 0 {
		cfg.LightSensor.SPISpeedHz = 1000000 // 1 MHz, safe for MCP3008 at 3.3V
	}

	if cfg.Display.Type == "" {
		cfg.Display.Type = "framebuffer"
	}
	if cfg.Display.Width <= 0 {
		cfg.Display.Width = 128
	}
	if cfg.Display.Height <= 0 {
		cfg.Display.Height = 64
	}
	if cfg.Display.Address == 0 {
		cfg.Display.Address = 0x3C
	}

	if cfg.Timing.SensorIntervalMs <= 0 {
		cfg.Timing.SensorIntervalMs = 50
	}
	if cfg.Timing.DisplayIntervalMs <= 0 {
		cfg.Timing.DisplayIntervalMs = 200 // OLED refresh throttle
	}
	if cfg.Timing.StatusIntervalMs <= 0 {
		cfg.Timing.StatusIntervalMs = 500
	}
	if cfg.Timing.BlinkIntervalMs <= 0 {
		cfg.Timing.BlinkIntervalMs = 1000
	}

	if cfg.Defaults.GPIOBackend == "" {
		cfg.Defaults.GPIOBackend = "rpio"
	}
}

// Validate reports the first inconsistency found in cfg. Defaults must
// already be applied.
func (c *Config) Validate() error {
	m := c.Motor
	if m.StepsPerRev <= 0 {
		return fmt.Errorf("motor.steps_per_rev must be > 0, got %d", m.StepsPerRev)
	}
	if m.Microstepping <= 0 || m.Microstepping > 256 || m.Microstepping&(m.Microstepping-1) != 0 {
		return fmt.Errorf("motor.microstepping must be a power of two between 1 and 256, got %d", m.Microstepping)
	}
	if m.TargetRPM <= 0 {
		return fmt.Errorf("motor.target_rpm must be > 0, got %d", m.TargetRPM)
	}
	// Any factor >= 60 already yields at least one pulse per second; testing
	// that first keeps the product from overflowing.
	if m.TargetRPM < 60 && m.StepsPerRev < 60 && m.Microstepping < 60 &&
		m.TargetRPM*m.StepsPerRev*m.Microstepping < 60 {
		return fmt.Errorf("motor.target_rpm %d is below one pulse per second", m.TargetRPM)
	}
	if m.MaxPulseRate <= 0 {
		return fmt.Errorf("motor.max_pulse_rate must be > 0, got %d", m.MaxPulseRate)
	}
	if int64(m.MaxPulseRate) > math.MaxInt32 {
		return fmt.Errorf("motor.max_pulse_rate must be <= %d, got %d", math.MaxInt32, m.MaxPulseRate)
	}
	if m.StepPin < 0 || m.DirPin < 0 || m.EnablePin < 0 {
		return fmt.Errorf("motor pins must be >= 0")
	}
	if m.StepPin == m.DirPin {
		return fmt.Errorf("motor.step_pin and motor.dir_pin must differ, both are %d", m.StepPin)
	}

	switch c.LightSensor.ADC {
	case "none", "mock", "machine":
	case "mcp3008":
		if c.LightSensor.ADCChannel < 0 || c.LightSensor.ADCChannel > 7 {
			return fmt.Errorf("light_sensor.adc_channel must be between 0 and 7, got %d", c.LightSensor.ADCChannel)
		}
	default:
		return fmt.Errorf("unsupported light_sensor.adc: %q", c.LightSensor.ADC)
	}
	if c.LightSensor.DigitalPin < 0 {
		return fmt.Errorf("light_sensor.digital_pin must be >= 0, got %d", c.LightSensor.DigitalPin)
	}

	switch c.Display.Type {
	case "none", "framebuffer", "ssd1306":
	default:
		return fmt.Errorf("unsupported display.type: %q", c.Display.Type)
	}

	switch c.Defaults.GPIOBackend {
	case "mock", "rpio", "gpiocdev", "machine":
	default:
		return fmt.Errorf("unsupported defaults.gpio_backend: %q", c.Defaults.GPIOBackend)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}

	if c.Timing.DisplayIntervalMs < c.Timing.SensorIntervalMs {
		return fmt.Errorf("timing.display_interval_ms (%d) must not be shorter than timing.sensor_interval_ms (%d)",
			c.Timing.DisplayIntervalMs, c.Timing.SensorIntervalMs)
	}
	return nil
}

// SensorInterval returns the minimum time between two light sensor polls.
func (c *Config) SensorInterval() time.Duration {
	return time.Duration(c.Timing.SensorIntervalMs) * time.Millisecond
}

// DisplayInterval returns the idle screen refresh throttle.
func (c *Config) DisplayInterval() time.Duration {
	return time.Duration(c.Timing.DisplayIntervalMs) * time.Millisecond
}

// StatusInterval returns the period of the diagnostic status line.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Timing.StatusIntervalMs) * time.Millisecond
}

// BlinkInterval returns the idle heartbeat LED toggle period.
func (c *Config) BlinkInterval() time.Duration {
	return time.Duration(c.Timing.BlinkIntervalMs) * time.Millisecond
}

// MicrostepsPerRev returns the number of pulses for one output shaft revolution.
func (c *Config) MicrostepsPerRev() int {
	return c.Motor.StepsPerRev * c.Motor.Microstepping
}
