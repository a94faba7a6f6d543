package run

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of a run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateCompleted State = "completed"
	StateRejected  State = "rejected"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// ErrInvalidTransition is returned for a state change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("run: invalid state transition")

var transitions = map[State][]State{
	StatePending:   {StateRunning, StateCancelled, StateFailed},
	StateRunning:   {StateSuspended, StateCompleted, StateFailed, StateCancelled},
	StateSuspended: {StateRunning, StateRejected, StateCancelled},
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateRejected, StateFailed, StateCancelled:
		return true
	}
	return false
}

// IsSettled reports whether the run is waiting on someone else or done.
func (s State) IsSettled() bool {
	return s == StateSuspended || s.IsTerminal()
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if from.CanTransition(to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
