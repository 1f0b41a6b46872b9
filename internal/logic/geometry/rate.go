package geometry

import (
	"math"

	"github.com/cjeanneret/LumiStep/internal/config"
)

// PulseRate converts a shaft speed to a STEP pulse rate:
// rpm * stepsPerRev * microsteps / 60, truncated toward zero. The product
// saturates at math.MaxInt64 instead of wrapping; non-positive inputs give 0.
func PulseRate(rpm, stepsPerRev, microsteps int) int64 {
	if rpm <= 0 || stepsPerRev <= 0 || microsteps <= 0 {
		return 0
	}
	return mulSat(mulSat(int64(rpm), int64(stepsPerRev)), int64(microsteps)) / 60
}

func mulSat(a, b int64) int64 {
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

// ClampRate limits rate to limit (0 = no limit) and narrows it to int32,
// saturating at math.MaxInt32. It reports whether clamping happened.
func ClampRate(rate int64, limit int32) (int32, bool) {
	if rate < 0 {
		return 0, true
	}
	if limit > 0 && rate > int64(limit) {
		return limit, true
	}
	if rate > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int32(rate), false
}

// DriverLimit narrows a configured max_pulse_rate to the int32 range used by
// the stepper. Values that do not fit saturate at math.MaxInt32; 0 or less
// means no limit.
func DriverLimit(maxPulseRate int) int32 {
	if maxPulseRate <= 0 {
		return 0
	}
	if int64(maxPulseRate) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(maxPulseRate)
}

// RPMFromRate converts a pulse rate back to shaft speed (integer RPM).
func RPMFromRate(rate int32, stepsPerRev, microsteps int) int {
	perRev := int64(stepsPerRev) * int64(microsteps)
	if perRev == 0 {
		return 0
	}
	return int(int64(rate) * 60 / perRev)
}

// RateCalculator derives the motor's fixed target pulse rate once at start-up.
type RateCalculator struct {
	target    int32
	requested int64
	clamped   bool
}

// NewRateCalculator computes the target pulse rate from configuration and
// clamps it to the driver maximum.
func NewRateCalculator(cfg *config.Config) *RateCalculator {
	requested := PulseRate(cfg.Motor.TargetRPM, cfg.Motor.StepsPerRev, cfg.Motor.Microstepping)
	target, clamped := ClampRate(requested, DriverLimit(cfg.Motor.MaxPulseRate))
	return &RateCalculator{
		target:    target,
		requested: requested,
		clamped:   clamped,
	}
}

// TargetPulseRate returns the unsigned pulse rate used while running.
func (r *RateCalculator) TargetPulseRate() int32 {
	return r.target
}

// RequestedPulseRate returns the rate implied by the configured RPM, before clamping.
func (r *RateCalculator) RequestedPulseRate() int64 {
	return r.requested
}

// Clamped reports whether the configured RPM exceeded the driver maximum.
func (r *RateCalculator) Clamped() bool {
	return r.clamped
}
