package motor

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cjeanneret/LumiStep/internal/hw/gpio"
	"github.com/cjeanneret/LumiStep/internal/hw/stepper"
	"github.com/cjeanneret/LumiStep/internal/logic/sensor"
)

const pulseRate = 5333

// fakeActuator records every commanded speed.
type fakeActuator struct {
	commands []int32
	limit    int32
}

func (f *fakeActuator) SetSpeed(pps int32) int32 {
	if f.limit > 0 && pps > f.limit {
		pps = f.limit
	}
	if f.limit > 0 && pps < -f.limit {
		pps = -f.limit
	}
	f.commands = append(f.commands, pps)
	return pps
}

func (f *fakeActuator) last() int32 {
	return f.commands[len(f.commands)-1]
}

func newTestController() (*Controller, *fakeActuator) {
	act := &fakeActuator{}
	return NewController(act, pulseRate), act
}

func TestNewController_StartsIdleForward(t *testing.T) {
	c, act := newTestController()

	st := c.State()
	if st.Running || st.Direction != Forward || st.CommandedPulseRate != 0 {
		t.Errorf("initial state = %+v, want idle/Forward/0", st)
	}
	if len(act.commands) != 1 || act.commands[0] != 0 {
		t.Errorf("actuator should be commanded to 0 at start, got %v", act.commands)
	}
}

func TestOnEdge_LightAppearedStartsForward(t *testing.T) {
	c, act := newTestController()

	st, req := c.OnEdge(sensor.LightAppeared)
	if !st.Running || st.CommandedPulseRate != pulseRate {
		t.Errorf("state = %+v, want running at +%d", st, pulseRate)
	}
	if req != RenderRunning {
		t.Errorf("display request = %v, want RenderRunning", req)
	}
	if act.last() != pulseRate {
		t.Errorf("actuator last command = %d, want %d", act.last(), pulseRate)
	}
}

func TestOnEdge_LightLostStopsAndFlips(t *testing.T) {
	c, act := newTestController()
	c.OnEdge(sensor.LightAppeared)

	st, req := c.OnEdge(sensor.LightLost)
	if st.Running || st.CommandedPulseRate != 0 {
		t.Errorf("state = %+v, want idle with rate 0", st)
	}
	if st.Direction != Reverse {
		t.Errorf("next direction = %v, want Reverse", st.Direction)
	}
	if req != RenderIdle {
		t.Errorf("display request = %v, want RenderIdle", req)
	}
	if act.last() != 0 {
		t.Errorf("actuator last command = %d, want 0", act.last())
	}
}

func TestOnEdge_ReverseRunIsNegative(t *testing.T) {
	c, act := newTestController()
	c.OnEdge(sensor.LightAppeared)
	c.OnEdge(sensor.LightLost)

	st, _ := c.OnEdge(sensor.LightAppeared)
	if st.CommandedPulseRate != -pulseRate {
		t.Errorf("rate = %d, want %d", st.CommandedPulseRate, -pulseRate)
	}
	if act.last() != -pulseRate {
		t.Errorf("actuator last command = %d, want %d", act.last(), -pulseRate)
	}
}

func TestOnEdge_NoOps(t *testing.T) {
	cases := []struct {
		name    string
		running bool
		edge    sensor.Edge
	}{
		{"lost_while_idle", false, sensor.LightLost},
		{"appeared_while_running", true, sensor.LightAppeared},
		{"no_edge_idle", false, sensor.NoEdge},
		{"no_edge_running", true, sensor.NoEdge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, act := newTestController()
			if tc.running {
				c.OnEdge(sensor.LightAppeared)
			}
			before := c.State()
			commands := len(act.commands)

			st, req := c.OnEdge(tc.edge)
			if st != before {
				t.Errorf("state changed from %+v to %+v", before, st)
			}
			if req != RenderNone {
				t.Errorf("display request = %v, want RenderNone", req)
			}
			if len(act.commands) != commands {
				t.Errorf("no-op should not command the actuator")
			}
		})
	}
}

func TestOnEdge_Bistability(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c, _ := newTestController()

	var dirAtStart Direction
	for i := 0; i < 5000; i++ {
		e := sensor.LightAppeared
		if rng.Intn(2) == 0 {
			e = sensor.LightLost
		}
		wasRunning := c.State().Running
		if e == sensor.LightAppeared && !wasRunning {
			dirAtStart = c.State().Direction
		}

		st, _ := c.OnEdge(e)

		if !st.Valid() {
			t.Fatalf("step %d: invariant broken: %+v", i, st)
		}
		if e == sensor.LightLost && wasRunning && st.Direction != dirAtStart.Opposite() {
			t.Fatalf("step %d: direction after stop = %v, want %v", i, st.Direction, dirAtStart.Opposite())
		}
	}
	if c.Transitions() == 0 {
		t.Error("random walk produced no transitions")
	}
}

func TestOnEdge_ClampedActuatorKeepsSign(t *testing.T) {
	act := &fakeActuator{limit: 1000}
	c := NewController(act, pulseRate)

	c.OnEdge(sensor.LightAppeared)
	c.OnEdge(sensor.LightLost)
	st, _ := c.OnEdge(sensor.LightAppeared)

	if st.CommandedPulseRate != -1000 {
		t.Errorf("rate = %d, want clamped -1000", st.CommandedPulseRate)
	}
	if !st.Valid() {
		t.Errorf("clamped state should remain valid: %+v", st)
	}
}

func TestHalt_KeepsPendingDirection(t *testing.T) {
	c, act := newTestController()
	c.OnEdge(sensor.LightAppeared)

	st := c.Halt()
	if st.Running || st.CommandedPulseRate != 0 {
		t.Errorf("Halt state = %+v, want idle/0", st)
	}
	if st.Direction != Forward {
		t.Errorf("Halt should not flip direction, got %v", st.Direction)
	}
	if act.last() != 0 {
		t.Errorf("actuator last command = %d, want 0", act.last())
	}
}

func TestController_DrivesRealStepper(t *testing.T) {
	drv := gpio.NewMockDriver()
	s := stepper.NewStepper(drv, stepper.Config{StepPin: 1, DirPin: 2, EnablePin: 3, MaxPulseRate: 10000})
	c := NewController(s, pulseRate)

	c.OnEdge(sensor.LightAppeared)
	if s.Speed() != pulseRate {
		t.Errorf("stepper speed = %d, want %d", s.Speed(), pulseRate)
	}
	if drv.Level(2) != gpio.High {
		t.Error("forward run should drive DIR high")
	}
	s.RunSpeed(0)
	s.RunSpeed(time.Millisecond)
	if s.Position() != 2 {
		t.Errorf("stepper position = %d, want 2", s.Position())
	}

	c.OnEdge(sensor.LightLost)
	if s.Speed() != 0 {
		t.Errorf("stepper speed after stop = %d, want 0", s.Speed())
	}
}

func TestNewController_MinimumRate(t *testing.T) {
	c := NewController(&fakeActuator{}, 0)
	if c.TargetPulseRate() != 1 {
		t.Errorf("TargetPulseRate = %d, want 1", c.TargetPulseRate())
	}
	st, _ := c.OnEdge(sensor.LightAppeared)
	if !st.Valid() {
		t.Errorf("state should be valid with minimum rate: %+v", st)
	}
}
