package restore

import (
	"fmt"

	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
)

// State is one stage of the restore pipeline. The pipeline is strictly
// sequential; the transition table below is the only way to move between
// stages, so an illegal jump is a bug, not a runtime condition.
type State int

const (
	StateAwaitingValidation State = iota
	StateRestoringOrReusing
	StatePolling
	StateVerifying
	StateSwapping
	StateCleaningUp
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingValidation:
		return "AwaitingValidation"
	case StateRestoringOrReusing:
		return "RestoringOrReusing"
	case StatePolling:
		return "Polling"
	case StateVerifying:
		return "Verifying"
	case StateSwapping:
		return "Swapping"
	case StateCleaningUp:
		return "CleaningUp"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transitions lists the legal successor states of each state. Every state
// may additionally fail.
var transitions = map[State][]State{
	StateAwaitingValidation: {StateRestoringOrReusing},
	StateRestoringOrReusing: {StatePolling},
	StatePolling:            {StateVerifying},
	StateVerifying:          {StateSwapping},
	StateSwapping:           {StateCleaningUp},
	StateCleaningUp:         {StateCompleted},
}

// CanTransition reports whether moving from one state to the next is legal.
func CanTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateCompleted && from != StateFailed
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and performs a state change, returning the new state.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, &errors.RestoreError{
			Code:     errors.ErrCodeInvalidState,
			Category: errors.CategoryInternal,
			Message:  fmt.Sprintf("illegal state transition %s -> %s", from, to),
		}
	}
	return to, nil
}
