//go:build rp2040

// Command lumistep-firmware runs the light-driven stepper on a Raspberry Pi
// Pico: STEP/DIR on GP2/GP3, ENABLE on GP6, sensor DO on GP15 and AO on
// ADC0 (GP26), SSD1306 on I2C0 (GP4/GP5).
package main

import (
	"machine"
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

func picoConfig() *config.Config {
	cfg := config.Default()
	cfg.Motor.StepPin = int(machine.GP2)
	cfg.Motor.DirPin = int(machine.GP3)
	cfg.Motor.EnablePin = int(machine.GP6)
	cfg.LightSensor.DigitalPin = int(machine.GP15)
	cfg.LightSensor.ADC = "machine"
	cfg.Display.Type = "ssd1306"
	cfg.StatusLED.Pin = int(machine.LED)
	cfg.Defaults.GPIOBackend = "machine"
	return cfg
}

func main() {
	cfg := picoConfig()
	if err := cfg.Validate(); err != nil {
		halt(err)
	}
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Summary("LumiStep firmware")

	g := gpio.NewMachineDriver()

	rate := geometry.NewRateCalculator(cfg)
	if rate.Clamped() {
		debug.Warn("target %d RPM clamped to %d pulses/s", cfg.Motor.TargetRPM, rate.TargetPulseRate())
	}
	stp := stepper.NewStepper(g, stepper.Config{
		StepPin:      cfg.Motor.StepPin,
		DirPin:       cfg.Motor.DirPin,
		EnablePin:    cfg.Motor.EnablePin,
		MaxPulseRate: geometry.DriverLimit(cfg.Motor.MaxPulseRate),
	})
	ctrl := motor.NewController(stp, rate.TargetPulseRate())

	poller, err := sensor.NewPoller(g, adc.NewMachineADC(machine.ADC0), sensor.Config{
		DigitalPin: cfg.LightSensor.DigitalPin,
		ActiveHigh: cfg.LightSensor.ActiveHigh,
	})
	if err != nil {
		halt(err)
	}

	machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	})
	oled := display.NewSSD1306(machine.I2C0, int16(cfg.Display.Width), int16(cfg.Display.Height), cfg.Display.Address)
	rend := screen.NewRenderer(display.NewCanvas(oled), screen.Info{
		Width:         int16(cfg.Display.Width),
		TargetRPM:     geometry.RPMFromRate(rate.TargetPulseRate(), cfg.Motor.StepsPerRev, cfg.Motor.Microstepping),
		PulseRate:     rate.TargetPulseRate(),
		Acceleration:  cfg.Motor.Acceleration,
		SupplyVoltage: cfg.Motor.SupplyVoltage,
		Microsteps:    cfg.Motor.Microstepping,
	})

	led, err := indicator.NewLED(g, cfg.StatusLED.Pin, cfg.StatusLED.ActiveLow)
	if err != nil {
		halt(err)
	}

	splashAt := time.Now()
	if err := rend.Splash(); err != nil {
		debug.Warn("%v", err)
	}
	if err := indicator.Flash(led, 3, 100*time.Millisecond); err != nil {
		debug.Warn("status LED: %v", err)
	}
	time.Sleep(screen.SplashRemaining(time.Since(splashAt)))

	sched := loop.New(loop.Parts{
		Pulses:  stp,
		Sensor:  poller,
		Motor:   ctrl,
		Display: rend,
		LED:     led,
	}, loop.TimingFromConfig(cfg))
	clock := loop.NewSystemClock()
	if err := sched.Start(clock.Now()); err != nil {
		debug.Warn("%v", err)
	}

	for {
		sched.Tick(clock.Now())
	}
}

// halt reports a start-up error forever; there is nothing to return to.
func halt(err error) {
	for {
		println("lumistep:", err.Error())
		time.Sleep(time.Second)
	}
}
