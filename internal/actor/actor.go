// Package actor holds the units of behaviour the simulation applies once per
// tick. Every actor turns one state into the next and never mutates its input.
package actor

import "github.com/vovakirdan/gridbot/internal/state"

// Actor produces the next state from the current one. Implementations may
// keep private bookkeeping but must return a new State rather than editing
// the one they receive.
type Actor interface {
	Apply(s state.State) state.State
}

// Func adapts a plain function to the Actor interface.
type Func func(s state.State) state.State

// Apply calls f.
func (f Func) Apply(s state.State) state.State {
	return f(s)
}
