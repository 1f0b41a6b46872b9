//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cjeanneret/LumiStep/internal/config"
	"github.com/cjeanneret/LumiStep/internal/debug"
	"github.com/cjeanneret/LumiStep/internal/hw/adc"
	"github.com/cjeanneret/LumiStep/internal/hw/display"
	"github.com/cjeanneret/LumiStep/internal/hw/gpio"
	"github.com/cjeanneret/LumiStep/internal/hw/indicator"
	"github.com/cjeanneret/LumiStep/internal/hw/stepper"
	"github.com/cjeanneret/LumiStep/internal/logic/geometry"
	"github.com/cjeanneret/LumiStep/internal/logic/loop"
	"github.com/cjeanneret/LumiStep/internal/logic/motor"
	"github.com/cjeanneret/LumiStep/internal/logic/screen"
	"github.com/cjeanneret/LumiStep/internal/logic/sensor"
)

// overrides are the CLI values replacing config entries. Zero values (and
// a negative debug level) mean "use the config file".
type overrides struct {
	DebugLevel  int
	GPIOBackend string
	TargetRPM   int
}

func main() {
	// CLI flags
	debugLevel := &debugLevelFlag{val: -1, defaultLevel: debug.LevelVerbose}
	flag.Var(debugLevel, "debug", "override debug level; -debug= for verbose (3), -debug 4 for trace")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	backend := flag.String("gpio", "", "override GPIO backend: mock, rpio or gpiocdev")
	targetRPM := flag.Int("rpm", 0, "override target speed in RPM")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	ov := overrides{
		DebugLevel:  debugLevel.level(),
		GPIOBackend: *backend,
		TargetRPM:   *targetRPM,
	}
	if err := validateOverrides(ov); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, ov)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", debug.Level())

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// run brings up the hardware and drives the control loop until ctx is done.
// The motor is stopped and the driver disabled on the way out.
func run(ctx context.Context, cfg *config.Config) error {
	debug.Value("GPIO backend", cfg.Defaults.GPIOBackend)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.GPIOBackend)
	if err != nil {
		return fmt.Errorf("init GPIO failed: %w", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	debug.Step(2, "Deriving pulse rate")
	rate := geometry.NewRateCalculator(cfg)
	if rate.Clamped() {
		debug.Warn("%d RPM needs %d pulses/s, clamped to the driver maximum %d (%d RPM)",
			cfg.Motor.TargetRPM, rate.RequestedPulseRate(), rate.TargetPulseRate(),
			geometry.RPMFromRate(rate.TargetPulseRate(), cfg.Motor.StepsPerRev, cfg.Motor.Microstepping))
	}
	debug.Value("Pulse rate", rate.TargetPulseRate())

	debug.Step(3, "Initializing stepper motor")
	stp := stepper.NewStepper(gpioDriver, stepper.Config{
		StepPin:      cfg.Motor.StepPin,
		DirPin:       cfg.Motor.DirPin,
		EnablePin:    cfg.Motor.EnablePin,
		MaxPulseRate: geometry.DriverLimit(cfg.Motor.MaxPulseRate),
	})
	debug.PrintStruct("Motor config", cfg.Motor)
	ctrl := motor.NewController(stp, rate.TargetPulseRate())
	defer func() {
		ctrl.Halt()
		if err := stp.Disable(); err != nil {
			log.Printf("disabling motor driver failed: %v", err)
		}
		if n, err := stp.Faults(); n > 0 {
			debug.Warn("%d STEP/DIR writes failed, last: %v", n, err)
		}
	}()

	debug.Step(4, "Initializing light sensor")
	analog, closeADC, err := newAnalogReader(cfg)
	if err != nil {
		return fmt.Errorf("init light sensor: %w", err)
	}
	defer closeADC()
	poller, err := sensor.NewPoller(gpioDriver, analog, sensor.Config{
		DigitalPin: cfg.LightSensor.DigitalPin,
		ActiveHigh: cfg.LightSensor.ActiveHigh,
	})
	if err != nil {
		return err
	}
	debug.PrintStruct("Light sensor config", cfg.LightSensor)

	debug.Step(5, "Initializing display and status LED")
	rend, err := newScreen(cfg, screenInfo(cfg, rate))
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	led, err := newIndicator(gpioDriver, cfg)
	if err != nil {
		return err
	}

	splashAt := time.Now()
	if rend != nil {
		if err := rend.Splash(); err != nil {
			debug.Warn("%v", err)
		}
	}
	if err := indicator.Flash(led, 3, 100*time.Millisecond); err != nil {
		debug.Warn("status LED: %v", err)
	}
	if rend != nil {
		holdSplash(ctx, time.Since(splashAt))
	}

	parts := loop.Parts{
		Pulses: stp,
		Sensor: poller,
		Motor:  ctrl,
		LED:    led,
	}
	if rend != nil {
		parts.Display = rend
	}
	sched := loop.New(parts, loop.TimingFromConfig(cfg))
	clock := loop.NewSystemClock()

	debug.Section("Control loop")
	if err := sched.Start(clock.Now()); err != nil {
		debug.Warn("%v", err)
	}
	err = sched.Run(ctx, clock)

	st := sched.Stats()
	debug.Summary("Shutdown")
	debug.Info("ticks=%d polls=%d transitions=%d pulses=%d renders=%d render_failures=%d sensor_faults=%d",
		st.Ticks, st.Polls, st.Transitions, st.Pulses, st.Renders, st.RenderFailures, st.SensorFaults)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// holdSplash keeps the start-up screen up for screen.SplashHold in total,
// returning early if ctx is cancelled.
func holdSplash(ctx context.Context, elapsed time.Duration) {
	wait := screen.SplashRemaining(elapsed)
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// validateOverrides checks the CLI overrides that are set.
func validateOverrides(ov overrides) error {
	if ov.DebugLevel > debug.LevelTrace {
		return fmt.Errorf("debug must be between 0 and 4, got %d", ov.DebugLevel)
	}
	switch ov.GPIOBackend {
	case "", "mock", "rpio", "gpiocdev":
	default:
		return fmt.Errorf("gpio must be mock, rpio or gpiocdev, got %q", ov.GPIOBackend)
	}
	if ov.TargetRPM < 0 || ov.TargetRPM > 3000 {
		return fmt.Errorf("rpm must be between 1 and 3000, got %d", ov.TargetRPM)
	}
	return nil
}

// applyOverrides mutates cfg with the overrides that are set.
func applyOverrides(cfg *config.Config, ov overrides) {
	if ov.DebugLevel >= 0 {
		cfg.Defaults.DebugLevel = ov.DebugLevel
	}
	if ov.GPIOBackend != "" {
		cfg.Defaults.GPIOBackend = ov.GPIOBackend
	}
	if ov.TargetRPM > 0 {
		cfg.Motor.TargetRPM = ov.TargetRPM
	}
}

// newAnalogReader selects the light intensity source. The returned close
// function is never nil.
func newAnalogReader(cfg *config.Config) (adc.Reader, func() error, error) {
	noop := func() error { return nil }
	switch cfg.LightSensor.ADC {
	case "none":
		return nil, noop, nil
	case "mock":
		return adc.NewMockReader(512), noop, nil
	case "mcp3008":
		// go-rpio SPI works on the memory mapping opened by the rpio backend.
		if cfg.Defaults.GPIOBackend != "rpio" {
			return nil, noop, fmt.Errorf("adc mcp3008 requires the rpio GPIO backend, got %q", cfg.Defaults.GPIOBackend)
		}
		m, err := adc.NewMCP3008(cfg.LightSensor.ADCChannel, cfg.LightSensor.SPISpeedHz)
		if err != nil {
			return nil, noop, err
		}
		return m, m.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported adc on this build: %q", cfg.LightSensor.ADC)
	}
}

// screenInfo collects the fixed values shown on the screens. The RPM shown
// is the one actually reached after clamping.
func screenInfo(cfg *config.Config, rate *geometry.RateCalculator) screen.Info {
	return screen.Info{
		Width:         int16(cfg.Display.Width),
		TargetRPM:     geometry.RPMFromRate(rate.TargetPulseRate(), cfg.Motor.StepsPerRev, cfg.Motor.Microstepping),
		PulseRate:     rate.TargetPulseRate(),
		Acceleration:  cfg.Motor.Acceleration,
		SupplyVoltage: cfg.Motor.SupplyVoltage,
		Microsteps:    cfg.Motor.Microstepping,
	}
}

// newScreen selects the display. It returns nil for "none".
func newScreen(cfg *config.Config, info screen.Info) (*screen.Renderer, error) {
	switch cfg.Display.Type {
	case "none":
		return nil, nil
	case "framebuffer":
		fb := display.NewFramebuffer(int16(cfg.Display.Width), int16(cfg.Display.Height))
		fb.OnFlush = func(f *display.Framebuffer) error {
			if debug.IsEnabled(debug.LevelTrace) {
				debug.Trace("framebuffer:\n%s", f)
			}
			return nil
		}
		return screen.NewRenderer(display.NewCanvas(fb), info), nil
	default:
		return nil, fmt.Errorf("display %q is not available on this build", cfg.Display.Type)
	}
}

// newIndicator returns the status LED, or a no-op when no pin is set.
func newIndicator(g gpio.Driver, cfg *config.Config) (indicator.Indicator, error) {
	if cfg.StatusLED.Pin <= 0 {
		return indicator.None{}, nil
	}
	led, err := indicator.NewLED(g, cfg.StatusLED.Pin, cfg.StatusLED.ActiveLow)
	if err != nil {
		return nil, err
	}
	return led, nil
}

// debugLevelFlag implements flag.Value for -debug: unset keeps the config
// level, -debug= selects defaultLevel, -debug 2 selects level 2.
type debugLevelFlag struct {
	val          int
	defaultLevel int
}

func (d *debugLevelFlag) String() string {
	if d.val < 0 {
		return ""
	}
	return strconv.Itoa(d.val)
}

func (d *debugLevelFlag) Set(s string) error {
	if s == "" {
		d.val = d.defaultLevel
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < debug.LevelOff || v > debug.LevelTrace {
		return fmt.Errorf("debug level must be 0-4, got %d", v)
	}
	d.val = v
	return nil
}

func (d *debugLevelFlag) level() int { return d.val }
