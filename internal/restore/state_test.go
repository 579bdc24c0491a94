package restore

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"validation to restoring", StateAwaitingValidation, StateRestoringOrReusing, true},
		{"restoring to polling", StateRestoringOrReusing, StatePolling, true},
		{"polling to verifying", StatePolling, StateVerifying, true},
		{"verifying to swapping", StateVerifying, StateSwapping, true},
		{"swapping to cleanup", StateSwapping, StateCleaningUp, true},
		{"cleanup to completed", StateCleaningUp, StateCompleted, true},
		{"skip polling", StateRestoringOrReusing, StateVerifying, false},
		{"skip verification", StatePolling, StateSwapping, false},
		{"backwards", StateSwapping, StatePolling, false},
		{"restart after completion", StateCompleted, StateRestoringOrReusing, false},
		{"any stage may fail", StatePolling, StateFailed, true},
		{"initial stage may fail", StateAwaitingValidation, StateFailed, true},
		{"completed cannot fail", StateCompleted, StateFailed, false},
		{"failed is terminal", StateFailed, StateFailed, false},
		{"failed cannot resume", StateFailed, StatePolling, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransition_Illegal(t *testing.T) {
	got, err := Transition(StatePolling, StateCompleted)
	if err == nil {
		t.Fatal("expected error for illegal transition")
	}
	if got != StatePolling {
		t.Errorf("state after rejected transition = %v, want unchanged", got)
	}
}

func TestStateString(t *testing.T) {
	if s := StateSwapping.String(); s != "Swapping" {
		t.Errorf("StateSwapping.String() = %q", s)
	}
	if s := State(99).String(); s != "State(99)" {
		t.Errorf("unknown state String() = %q", s)
	}
}
