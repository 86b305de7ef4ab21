// Package level turns level documents into playable levels.
// This package depends on sim and state; neither depends on level.
package level

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/gridbot/internal/actor"
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/level/formats"
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/state"
)

// Goal kinds.
const (
	GoalReach = "goal"
	GoalNone  = "none"
)

// Failure reasons reported by CheckWin.
const (
	ReasonCaught     = "caught by an enemy"
	ReasonHazard     = "stepped on an active hazard"
	ReasonOutOfPower = "out of energy"
)

// Definition is a level built from a document. It is immutable and safe to
// share: every call to Actors builds fresh actors.
type Definition struct {
	id        string
	name      string
	objective string
	goal      string
	states    []state.State
	hazards   []formats.Hazard
	enemies   int
	disabled  []string

	// FilePath is the source file, empty for embedded levels.
	FilePath string
}

var _ sim.Level = (*Definition)(nil)

// FromDocument validates doc and builds its level.
func FromDocument(doc formats.Document) (*Definition, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	base := state.State{
		Width:  doc.Size.W,
		Height: doc.Size.H,
	}
	for _, c := range doc.Obstacles {
		base.Obstacles = append(base.Obstacles, state.Obstacle{Pos: core.P(c.X, c.Y)})
	}
	for _, c := range doc.Goals {
		base.Goals = append(base.Goals, state.Goal{Pos: core.P(c.X, c.Y)})
	}
	for _, c := range doc.EnergyCells {
		base.EnergyCells = append(base.EnergyCells, state.EnergyCell{Pos: core.P(c.X, c.Y), Amount: c.Amount})
	}
	for _, e := range doc.Enemies {
		facing, _ := parseFacing(e.Facing)
		base.Enemies = append(base.Enemies, state.Enemy{Pos: core.P(e.X, e.Y), Facing: facing})
	}
	for _, h := range doc.Hazards {
		hz := actor.NewHazard(0, h.Period, h.Offset)
		base.Hazards = append(base.Hazards, state.Hazard{Pos: core.P(h.X, h.Y), Active: hz.ActiveAt(0)})
	}
	for _, t := range doc.Terminals {
		base.DataTerminals = append(base.DataTerminals, state.DataTerminal{Pos: core.P(t.X, t.Y), Data: t.Data})
	}
	for _, g := range doc.Gates {
		base.Gates = append(base.Gates, state.Gate{Pos: core.P(g.X, g.Y), Open: g.Open, Password: g.Password})
	}
	for _, b := range doc.Buttons {
		base.Buttons = append(base.Buttons, state.Button{Pos: core.P(b.X, b.Y), Gate: b.Gate})
	}
	for _, c := range doc.Crates {
		base.Crates = append(base.Crates, state.Crate{Pos: core.P(c.X, c.Y)})
	}

	states := make([]state.State, 0, len(doc.Starts))
	for _, s := range doc.Starts {
		facing, _ := parseFacing(s.Facing)
		st := base.Clone()
		st.Player = state.Player{
			Pos:       core.P(s.X, s.Y),
			Facing:    facing,
			Energy:    s.Energy,
			HeldCrate: state.NoCrate,
		}
		states = append(states, st)
	}

	return &Definition{
		id:        doc.ID,
		name:      doc.Name,
		objective: doc.Objective,
		goal:      doc.Goal,
		states:    states,
		hazards:   slices.Clone(doc.Hazards),
		enemies:   len(doc.Enemies),
		disabled:  slices.Clone(doc.DisabledFunctions),
	}, nil
}

// Parse decodes, schema-checks and builds a YAML level.
func Parse(data []byte) (*Definition, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	doc, err := formats.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// ID returns the level identifier.
func (d *Definition) ID() string { return d.id }

// Name returns the display name.
func (d *Definition) Name() string { return d.name }

// Objective returns the objective text.
func (d *Definition) Objective() string { return d.objective }

// Goal returns the goal kind.
func (d *Definition) Goal() string { return d.goal }

// InitialStates returns a copy of every start variant.
func (d *Definition) InitialStates() []state.State {
	out := make([]state.State, len(d.states))
	for i, s := range d.states {
		out[i] = s.Clone()
	}
	return out
}

// Actors builds enemies first, then hazards, in document order.
func (d *Definition) Actors() []actor.Actor {
	out := make([]actor.Actor, 0, d.enemies+len(d.hazards))
	for i := range d.enemies {
		out = append(out, actor.NewEnemy(i))
	}
	for i, h := range d.hazards {
		out = append(out, actor.NewHazard(i, h.Period, h.Offset))
	}
	return out
}

// DisabledFunctions returns the builtins this level locks.
func (d *Definition) DisabledFunctions() []string {
	return slices.Clone(d.disabled)
}

// CheckWin evaluates the win condition. Losing conditions are checked first.
func (d *Definition) CheckWin(s state.State) sim.Outcome {
	if s.EnemyAt(s.Player.Pos) >= 0 {
		return sim.Lost(ReasonCaught)
	}
	if s.OnActiveHazard() {
		return sim.Lost(ReasonHazard)
	}
	if d.goal == GoalNone {
		return sim.NoGoal()
	}
	if s.OnGoal() {
		return sim.Won()
	}
	if s.Player.Energy <= 0 {
		return sim.Lost(ReasonOutOfPower)
	}
	return sim.Continuing()
}

// IsAvailable reports whether scripts on lvl may call the named builtin.
func IsAvailable(lvl sim.Level, name string) bool {
	return !slices.Contains(lvl.DisabledFunctions(), name)
}

// parseFacing defaults an empty orientation to right.
func parseFacing(s string) (core.Orientation, error) {
	if s == "" {
		return core.OrientationRight, nil
	}
	o, ok := core.ParseOrientation(s)
	if !ok {
		return 0, fmt.Errorf("unknown orientation %q", s)
	}
	return o, nil
}
