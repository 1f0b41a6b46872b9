package motor

import "testing"

func TestDirection(t *testing.T) {
	if Forward.Sign() != 1 || Reverse.Sign() != -1 {
		t.Errorf("Sign: Forward=%d Reverse=%d", Forward.Sign(), Reverse.Sign())
	}
	if Forward.Opposite() != Reverse || Reverse.Opposite() != Forward {
		t.Error("Opposite should swap directions")
	}
	if Forward.String() != "Forward" || Reverse.String() != "Reverse" {
		t.Errorf("String: %q %q", Forward, Reverse)
	}
}

func TestState_Valid(t *testing.T) {
	cases := []struct {
		name  string
		state State
		want  bool
	}{
		{"idle_zero", State{Direction: Reverse}, true},
		{"idle_nonzero", State{CommandedPulseRate: 10}, false},
		{"running_forward_positive", State{Running: true, CommandedPulseRate: 10}, true},
		{"running_forward_negative", State{Running: true, CommandedPulseRate: -10}, false},
		{"running_reverse_negative", State{Running: true, Direction: Reverse, CommandedPulseRate: -10}, true},
		{"running_reverse_positive", State{Running: true, Direction: Reverse, CommandedPulseRate: 10}, false},
		{"running_zero", State{Running: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.Valid(); got != tc.want {
				t.Errorf("Valid(%+v) = %v, want %v", tc.state, got, tc.want)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := (State{Running: true, Direction: Reverse, CommandedPulseRate: -1}).String(); got != "Running(Reverse)" {
		t.Errorf("String = %q", got)
	}
	if got := (State{Direction: Reverse}).String(); got != "Idle(next Reverse)" {
		t.Errorf("String = %q", got)
	}
}
