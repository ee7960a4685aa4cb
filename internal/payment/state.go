// internal/payment/state.go
package payment

import "fmt"

// State is the observable phase of a payment attempt.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateAwaitingApproval
	StateProcessing
	StateConfirmed
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateAwaitingApproval:
		return "awaiting-approval"
	case StateProcessing:
		return "processing"
	case StateConfirmed:
		return "confirmed"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether an attempt has finished in s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateError
}

// Busy reports whether an attempt is in flight in s.
func (s State) Busy() bool {
	return s == StateBuilding || s == StateAwaitingApproval || s == StateProcessing
}

var transitions = map[State][]State{
	StateIdle:             {StateBuilding},
	StateBuilding:         {StateAwaitingApproval, StateError},
	StateAwaitingApproval: {StateProcessing, StateError},
	StateProcessing:       {StateConfirmed, StateError},
	StateConfirmed:        {StateIdle},
	StateError:            {StateIdle},
}

// CanTransition reports whether from -> to is an edge of the workflow.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
