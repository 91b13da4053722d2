package sandbox

import "fmt"

// State is the lifecycle state of a run.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateExecuting
	StateError
	StateLive
	StateTornDown
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StatePreparing: "preparing",
	StateExecuting: "executing",
	StateError:     "error",
	StateLive:      "live",
	StateTornDown:  "torn_down",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StateIdle:      {StatePreparing},
	StatePreparing: {StateExecuting, StateError, StateTornDown},
	StateExecuting: {StateError, StateLive, StateTornDown},
	StateError:     {StateTornDown},
	StateLive:      {StateTornDown},
	StateTornDown:  {StatePreparing},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lifecycle tracks the state of one run and rejects illegal steps.
type Lifecycle struct {
	state State
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// To moves to next or returns an error for an illegal step.
func (l *Lifecycle) To(next State) error {
	if !CanTransition(l.state, next) {
		return fmt.Errorf("illegal transition %s -> %s", l.state, next)
	}
	l.state = next
	return nil
}
