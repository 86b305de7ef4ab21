// Package sim owns the tick loop: the history of world states, the fixed
// actor ordering and the outcome machine that decides when a run is over.
package sim

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gridbot/internal/action"
	"github.com/vovakirdan/gridbot/internal/actor"
	"github.com/vovakirdan/gridbot/internal/state"
)

// Level is what the simulation needs from a puzzle definition.
type Level interface {
	ID() string
	Name() string
	Objective() string
	// InitialStates lists the starting variants of the level.
	InitialStates() []state.State
	// Actors returns freshly built non-player actors in application order.
	Actors() []actor.Actor
	CheckWin(s state.State) Outcome
	// DisabledFunctions names the builtins scripts may not call.
	DisabledFunctions() []string
}

// Simulation applies actors one tick at a time and records every state.
// It is single-threaded: callers must not step it from two goroutines.
type Simulation struct {
	level   Level
	queue   *action.Queue
	actors  []actor.Actor
	history []state.State
	outcome Outcome
	logger  *log.Logger

	stepping bool
}

// New creates an empty simulation. A nil logger discards output.
func New(logger *log.Logger) *Simulation {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulation{
		queue:  action.NewQueue(),
		logger: logger,
	}
}

// Load resets the simulation to variant idx of lvl.
func (s *Simulation) Load(lvl Level, idx int) error {
	states := lvl.InitialStates()
	if idx < 0 || idx >= len(states) {
		return fmt.Errorf("sim: level %s has no state %d (have %d)", lvl.ID(), idx, len(states))
	}

	if n := s.queue.Drain(); n > 0 {
		s.logger.Warn("dropped stale actions", "count", n)
	}

	s.level = lvl
	s.actors = append([]actor.Actor{actor.NewPlayer(s.queue)}, lvl.Actors()...)
	s.history = []state.State{states[idx].Clone()}
	s.outcome = Continuing()
	s.logger.Debug("level loaded", "level", lvl.ID(), "state", idx, "actors", len(s.actors))
	return nil
}

// Level returns the loaded level, or nil.
func (s *Simulation) Level() Level {
	return s.level
}

// Queue returns the mailbox the player actor reads from.
func (s *Simulation) Queue() *action.Queue {
	return s.queue
}

// Current returns a copy of the latest state.
func (s *Simulation) Current() state.State {
	if len(s.history) == 0 {
		return state.State{}
	}
	return s.history[len(s.history)-1].Clone()
}

// History returns every recorded state, the initial one first.
func (s *Simulation) History() []state.State {
	out := make([]state.State, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of recorded states.
func (s *Simulation) Len() int {
	return len(s.history)
}

// Ticks returns how many ticks have been applied.
func (s *Simulation) Ticks() int {
	if len(s.history) == 0 {
		return 0
	}
	return len(s.history) - 1
}

// Outcome returns the last evaluated outcome.
func (s *Simulation) Outcome() Outcome {
	return s.outcome
}

// StepForward applies one tick. The player actor runs first and the win
// condition is checked; only a still-running level lets the remaining actors
// act before the second check. Terminal outcomes are sticky: once reached no
// state is appended and the same outcome is returned.
func (s *Simulation) StepForward() Outcome {
	if s.level == nil {
		panic("sim: StepForward before Load")
	}
	if s.stepping {
		panic("sim: re-entrant StepForward")
	}
	if s.outcome.IsTerminal() {
		return s.outcome
	}
	s.stepping = true
	defer func() { s.stepping = false }()

	cur := s.history[len(s.history)-1]
	next := s.actors[0].Apply(cur)
	out := s.level.CheckWin(next)
	if !out.IsTerminal() {
		for _, a := range s.actors[1:] {
			next = a.Apply(next)
		}
		out = s.level.CheckWin(next)
	}

	s.history = append(s.history, next)
	s.outcome = out
	s.logger.Debug("tick", "n", len(s.history)-1, "outcome", out.String(), "pos", next.Player.Pos.String())
	return out
}
