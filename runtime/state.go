package runtime

import (
	"fmt"
	"sync"
)

// State is a step of the execution state machine.
type State string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateDone      State = "done"
)

var transitions = map[State][]State{
	StateIdle:      {StatePreparing},
	StatePreparing: {StateRunning, StateFailed},
	StateRunning:   {StateSucceeded, StateFailed, StateTimedOut},
	StateSucceeded: {StateDone},
	StateFailed:    {StateDone},
	StateTimedOut:  {StateDone},
}

// IsTerminal reports whether s is one of the outcome states.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// CanTransition reports whether the machine allows from to to.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine tracks the state of one execution.
type Machine struct {
	mu      sync.Mutex
	state   State
	history []State
	outcome State
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle, history: []State{StateIdle}}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Outcome returns the terminal state reached, or "" if none yet.
func (m *Machine) Outcome() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// History returns every state visited, in order.
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.history...)
}

// To moves the machine to next.
func (m *Machine) To(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
	}
	m.state = next
	m.history = append(m.history, next)
	if next.IsTerminal() {
		m.outcome = next
	}
	return nil
}

// Finish drives the machine to Done from wherever it is, passing through
// outcome when no terminal state has been reached yet.
func (m *Machine) Finish(outcome State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDone {
		return
	}
	if !m.state.IsTerminal() {
		if !outcome.IsTerminal() {
			outcome = StateFailed
		}
		m.state = outcome
		m.outcome = outcome
		m.history = append(m.history, outcome)
	}
	m.state = StateDone
	m.history = append(m.history, StateDone)
}
