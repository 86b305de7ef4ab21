package sim_test

import (
	"testing"

	"github.com/vovakirdan/gridbot/internal/action"
	"github.com/vovakirdan/gridbot/internal/actor"
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/state"
)

// testLevel is a minimal level: reach (3,0) to win, touching an enemy loses.
type testLevel struct {
	states []state.State
	actors func() []actor.Actor
	goal   bool
}

func (l *testLevel) ID() string                   { return "test" }
func (l *testLevel) Name() string                 { return "Test" }
func (l *testLevel) Objective() string            { return "" }
func (l *testLevel) InitialStates() []state.State { return l.states }
func (l *testLevel) DisabledFunctions() []string  { return nil }

func (l *testLevel) Actors() []actor.Actor {
	if l.actors == nil {
		return nil
	}
	return l.actors()
}

func (l *testLevel) CheckWin(s state.State) sim.Outcome {
	if s.EnemyAt(s.Player.Pos) >= 0 {
		return sim.Lost("caught")
	}
	if !l.goal {
		return sim.NoGoal()
	}
	if s.Player.Pos == core.P(3, 0) {
		return sim.Won()
	}
	return sim.Continuing()
}

func corridor() state.State {
	return state.State{
		Width:  5,
		Height: 2,
		Player: state.Player{
			Pos:       core.P(0, 0),
			Facing:    core.OrientationRight,
			Energy:    10,
			HeldCrate: state.NoCrate,
		},
	}
}

func newSim(t *testing.T, lvl sim.Level) *sim.Simulation {
	t.Helper()
	s := sim.New(nil)
	if err := s.Load(lvl, 0); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func TestLoadResetsHistory(t *testing.T) {
	lvl := &testLevel{states: []state.State{corridor()}, goal: true}
	s := newSim(t, lvl)

	s.Queue().Send(action.Move(action.Forward))
	s.StepForward()
	if s.Len() != 2 {
		t.Fatalf("expected 2 states, got %d", s.Len())
	}

	s.Queue().Send(action.Wait())
	if err := s.Load(lvl, 0); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected history reset to 1, got %d", s.Len())
	}
	if s.Queue().Len() != 0 {
		t.Errorf("expected queue drained, got %d", s.Queue().Len())
	}
	if s.Outcome().Kind != sim.Continue {
		t.Errorf("expected Continue after load, got %v", s.Outcome())
	}
}

func TestLoadRejectsBadIndex(t *testing.T) {
	lvl := &testLevel{states: []state.State{corridor()}}
	if err := sim.New(nil).Load(lvl, 3); err == nil {
		t.Error("expected error for out-of-range state index")
	}
}

func TestStepForwardAppendsState(t *testing.T) {
	s := newSim(t, &testLevel{states: []state.State{corridor()}, goal: true})

	s.Queue().Send(action.Move(action.Forward))
	out := s.StepForward()
	if out.Kind != sim.Continue {
		t.Errorf("expected Continue, got %v", out)
	}
	if got := s.Current().Player.Pos; got != core.P(1, 0) {
		t.Errorf("expected player at (1,0), got %v", got)
	}
	if s.Ticks() != 1 {
		t.Errorf("expected 1 tick, got %d", s.Ticks())
	}

	h := s.History()
	if h[0].Player.Pos != core.P(0, 0) {
		t.Errorf("history[0] changed: %v", h[0].Player.Pos)
	}
}

func TestTerminalOutcomeIsSticky(t *testing.T) {
	s := newSim(t, &testLevel{states: []state.State{corridor()}, goal: true})

	for range 3 {
		s.Queue().Send(action.Move(action.Forward))
		s.StepForward()
	}
	if s.Outcome().Kind != sim.Success {
		t.Fatalf("expected Success, got %v", s.Outcome())
	}
	n := s.Len()

	s.Queue().Send(action.Move(action.Forward))
	out := s.StepForward()
	if out.Kind != sim.Success {
		t.Errorf("expected sticky Success, got %v", out)
	}
	if s.Len() != n {
		t.Errorf("terminal step appended a state: %d -> %d", n, s.Len())
	}
}

func TestPlayerWinShortCircuitsOtherActors(t *testing.T) {
	calls := 0
	lvl := &testLevel{
		states: []state.State{corridor()},
		goal:   true,
		actors: func() []actor.Actor {
			return []actor.Actor{actor.Func(func(s state.State) state.State {
				calls++
				return s.Clone()
			})}
		},
	}
	start := corridor()
	start.Player.Pos = core.P(2, 0)
	lvl.states = []state.State{start}

	s := newSim(t, lvl)
	s.Queue().Send(action.Move(action.Forward))
	if out := s.StepForward(); out.Kind != sim.Success {
		t.Fatalf("expected Success, got %v", out)
	}
	if calls != 0 {
		t.Errorf("other actors ran %d times after a winning player move", calls)
	}
}

func TestActorsRunInDeclaredOrder(t *testing.T) {
	var order []int
	mk := func(i int) actor.Actor {
		return actor.Func(func(s state.State) state.State {
			order = append(order, i)
			return s.Clone()
		})
	}
	lvl := &testLevel{
		states: []state.State{corridor()},
		actors: func() []actor.Actor { return []actor.Actor{mk(1), mk(2), mk(3)} },
	}

	s := newSim(t, lvl)
	if out := s.StepForward(); out.Kind != sim.NoObjective {
		t.Errorf("expected NoObjective, got %v", out)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("unexpected actor order %v", order)
	}
}

func TestEnemyCatchFails(t *testing.T) {
	start := corridor()
	start.Enemies = []state.Enemy{{Pos: core.P(1, 0), Facing: core.OrientationLeft}}
	lvl := &testLevel{
		states: []state.State{start},
		goal:   true,
		actors: func() []actor.Actor { return []actor.Actor{actor.NewEnemy(0)} },
	}

	s := newSim(t, lvl)
	out := s.StepForward()
	if out.Kind != sim.Failure || out.Reason != "caught" {
		t.Errorf("expected Failure(caught), got %v", out)
	}
}

func TestEmptyQueueStepIsWait(t *testing.T) {
	s := newSim(t, &testLevel{states: []state.State{corridor()}, goal: true})
	s.StepForward()
	h := s.History()
	if !h[0].Equal(h[1]) {
		t.Errorf("empty step changed state:\n%s", h[0].Diff(h[1]))
	}
}

func TestReentrantStepPanics(t *testing.T) {
	var s *sim.Simulation
	lvl := &testLevel{
		states: []state.State{corridor()},
		actors: func() []actor.Actor {
			return []actor.Actor{actor.Func(func(st state.State) state.State {
				s.StepForward()
				return st
			})}
		},
	}
	s = newSim(t, lvl)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on re-entrant step")
		}
	}()
	s.StepForward()
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    sim.Outcome
		want string
	}{
		{sim.Continuing(), "continue"},
		{sim.NoGoal(), "no_objective"},
		{sim.Won(), "success"},
		{sim.Lost("out of energy"), "failure: out of energy"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if sim.Continuing().IsTerminal() || sim.NoGoal().IsTerminal() {
		t.Error("Continue and NoObjective must not be terminal")
	}
	if !sim.Won().IsTerminal() || !sim.Lost("x").IsTerminal() {
		t.Error("Success and Failure must be terminal")
	}
}
