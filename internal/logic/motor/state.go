package motor

// Direction is the rotation used by the next (or current) run.
type Direction int8

const (
	Forward Direction = iota
	Reverse
)

// Sign returns +1 for Forward and -1 for Reverse.
func (d Direction) Sign() int32 {
	if d == Reverse {
		return -1
	}
	return 1
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Reverse {
		return Forward
	}
	return Reverse
}

func (d Direction) String() string {
	if d == Reverse {
		return "Reverse"
	}
	return "Forward"
}

// State is the bistable motor state: idle, or running in Direction.
// While idle, Direction is the one the next run will use.
type State struct {
	Running            bool
	Direction          Direction
	CommandedPulseRate int32 // signed pulses/s, 0 while idle
}

// Valid reports whether the commanded rate agrees with Running and Direction.
func (s State) Valid() bool {
	if !s.Running {
		return s.CommandedPulseRate == 0
	}
	switch s.Direction {
	case Forward:
		return s.CommandedPulseRate > 0
	case Reverse:
		return s.CommandedPulseRate < 0
	}
	return false
}

func (s State) String() string {
	if s.Running {
		return "Running(" + s.Direction.String() + ")"
	}
	return "Idle(next " + s.Direction.String() + ")"
}

// DisplayRequest tells the caller which screen a transition calls for.
type DisplayRequest int

const (
	RenderNone DisplayRequest = iota
	RenderRunning
	RenderIdle
)
