package motor

import "github.com/cjeanneret/LumiStep/internal/logic/sensor"

// Actuator is the pulse generator the controller commands. SetSpeed returns
// the signed rate actually applied.
type Actuator interface {
	SetSpeed(pulsesPerSecond int32) int32
}

// Controller applies light edges to the bistable motor state. It's the
// layer between the sensor logic and the stepper driver: the driver is
// commanded synchronously inside each transition.
type Controller struct {
	act        Actuator
	targetRate int32
	state      State
	switches   int
}

// NewController starts Idle with Forward as the next direction and commands
// the actuator to standstill. targetRate is the unsigned running rate.
func NewController(act Actuator, targetRate int32) *Controller {
	if targetRate < 1 {
		targetRate = 1
	}
	act.SetSpeed(0)
	return &Controller{
		act:        act,
		targetRate: targetRate,
		state:      State{Direction: Forward},
	}
}

// OnEdge applies one edge. LightAppeared starts an idle motor in the
// pending direction; LightLost stops a running motor and flips the
// direction for the next run. Any other combination changes nothing and
// requests no render.
func (c *Controller) OnEdge(e sensor.Edge) (State, DisplayRequest) {
	switch {
	case e == sensor.LightAppeared && !c.state.Running:
		c.state.CommandedPulseRate = c.act.SetSpeed(c.targetRate * c.state.Direction.Sign())
		c.state.Running = true
		c.switches++
		return c.state, RenderRunning

	case e == sensor.LightLost && c.state.Running:
		c.state.CommandedPulseRate = c.act.SetSpeed(0)
		c.state.Running = false
		c.state.Direction = c.state.Direction.Opposite()
		c.switches++
		return c.state, RenderIdle
	}
	return c.state, RenderNone
}

// Halt stops the motor without touching the pending direction. Used on
// shutdown only; it is not a light transition.
func (c *Controller) Halt() State {
	c.state.CommandedPulseRate = c.act.SetSpeed(0)
	c.state.Running = false
	return c.state
}

// State returns the current motor state.
func (c *Controller) State() State {
	return c.state
}

// TargetPulseRate returns the unsigned running rate.
func (c *Controller) TargetPulseRate() int32 {
	return c.targetRate
}

// Transitions returns how many Idle/Running switches happened.
func (c *Controller) Transitions() int {
	return c.switches
}
