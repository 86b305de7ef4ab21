// Package state defines the immutable world snapshot the simulation records
// once per tick. Engine code never mutates a State in place: it clones, edits
// the clone and hands the clone on.
package state

import (
	"fmt"
	"hash/fnv"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/gridbot/internal/core"
)

// NoCrate marks a player that is not carrying anything.
const NoCrate = -1

// Player is the script-controlled rover.
type Player struct {
	Pos        core.Pos         `json:"pos"`
	Facing     core.Orientation `json:"facing"`
	Energy     int              `json:"energy"`
	Message    string           `json:"message,omitempty"`
	EnergyUsed int              `json:"energy_used"`
	HeldCrate  int              `json:"held_crate"`
}

// Holding reports whether the player carries a crate.
func (p Player) Holding() bool {
	return p.HeldCrate != NoCrate
}

// Obstacle is an impassable cell.
type Obstacle struct {
	Pos core.Pos `json:"pos"`
}

// Goal is a target cell.
type Goal struct {
	Pos core.Pos `json:"pos"`
}

// EnergyCell refills the player's energy once.
type EnergyCell struct {
	Pos       core.Pos `json:"pos"`
	Amount    int      `json:"amount"`
	Collected bool     `json:"collected"`
}

// Enemy chases the player.
type Enemy struct {
	Pos    core.Pos         `json:"pos"`
	Facing core.Orientation `json:"facing"`
}

// Hazard is a cell that is dangerous while Active.
type Hazard struct {
	Pos    core.Pos `json:"pos"`
	Active bool     `json:"active"`
}

// DataTerminal holds a string the player can read while adjacent.
type DataTerminal struct {
	Pos     core.Pos `json:"pos"`
	Data    string   `json:"data"`
	Reading bool     `json:"reading"`
}

// Gate blocks movement while closed. A gate with a password opens when the
// player says it while adjacent.
type Gate struct {
	Pos      core.Pos `json:"pos"`
	Open     bool     `json:"open"`
	Password string   `json:"password,omitempty"`
}

// Button toggles the gate at index Gate when pressed.
type Button struct {
	Pos     core.Pos `json:"pos"`
	Gate    int      `json:"gate"`
	Pressed bool     `json:"pressed"`
}

// Crate can be picked up and dropped by the player.
type Crate struct {
	Pos  core.Pos `json:"pos"`
	Held bool     `json:"held"`
}

// State is one snapshot of every entity in a level.
type State struct {
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Player        Player         `json:"player"`
	Obstacles     []Obstacle     `json:"obstacles,omitempty"`
	Goals         []Goal         `json:"goals,omitempty"`
	EnergyCells   []EnergyCell   `json:"energy_cells,omitempty"`
	Enemies       []Enemy        `json:"enemies,omitempty"`
	Hazards       []Hazard       `json:"hazards,omitempty"`
	DataTerminals []DataTerminal `json:"data_terminals,omitempty"`
	Gates         []Gate         `json:"gates,omitempty"`
	Buttons       []Button       `json:"buttons,omitempty"`
	Crates        []Crate        `json:"crates,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Obstacles = slices.Clone(s.Obstacles)
	c.Goals = slices.Clone(s.Goals)
	c.EnergyCells = slices.Clone(s.EnergyCells)
	c.Enemies = slices.Clone(s.Enemies)
	c.Hazards = slices.Clone(s.Hazards)
	c.DataTerminals = slices.Clone(s.DataTerminals)
	c.Gates = slices.Clone(s.Gates)
	c.Buttons = slices.Clone(s.Buttons)
	c.Crates = slices.Clone(s.Crates)
	return c
}

// Equal reports structural equality. Nil and empty entity lists compare equal.
func (s State) Equal(other State) bool {
	return cmp.Equal(s, other, cmpOpts...)
}

// Diff returns a human-readable structural diff, empty when equal.
func (s State) Diff(other State) string {
	return cmp.Diff(s, other, cmpOpts...)
}

var cmpOpts = []cmp.Option{
	cmp.Comparer(func(a, b []Obstacle) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Goal) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []EnergyCell) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Enemy) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Hazard) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []DataTerminal) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Gate) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Button) bool { return slices.Equal(a, b) }),
	cmp.Comparer(func(a, b []Crate) bool { return slices.Equal(a, b) }),
}

// InBounds reports whether p lies on the grid.
func (s State) InBounds(p core.Pos) bool {
	return p.InBounds(s.Width, s.Height)
}

// Blocked reports whether an entity cannot enter p. The player and enemies
// are not counted; callers check them separately.
func (s State) Blocked(p core.Pos) bool {
	if !s.InBounds(p) {
		return true
	}
	for _, o := range s.Obstacles {
		if o.Pos == p {
			return true
		}
	}
	for _, g := range s.Gates {
		if g.Pos == p && !g.Open {
			return true
		}
	}
	for _, d := range s.DataTerminals {
		if d.Pos == p {
			return true
		}
	}
	for _, b := range s.Buttons {
		if b.Pos == p {
			return true
		}
	}
	return s.CrateAt(p) >= 0
}

// CrateAt returns the index of the crate lying at p, or -1.
func (s State) CrateAt(p core.Pos) int {
	for i, c := range s.Crates {
		if !c.Held && c.Pos == p {
			return i
		}
	}
	return -1
}

// EnemyAt returns the index of the enemy at p, or -1.
func (s State) EnemyAt(p core.Pos) int {
	for i, e := range s.Enemies {
		if e.Pos == p {
			return i
		}
	}
	return -1
}

// OnGoal reports whether the player stands on any goal.
func (s State) OnGoal() bool {
	for _, g := range s.Goals {
		if g.Pos == s.Player.Pos {
			return true
		}
	}
	return false
}

// OnActiveHazard reports whether the player stands on an active hazard.
func (s State) OnActiveHazard() bool {
	for _, h := range s.Hazards {
		if h.Active && h.Pos == s.Player.Pos {
			return true
		}
	}
	return false
}

// AdjacentTerminal returns the index of a data terminal next to the player, or -1.
func (s State) AdjacentTerminal() int {
	for i, d := range s.DataTerminals {
		if d.Pos.Adjacent(s.Player.Pos) {
			return i
		}
	}
	return -1
}

// AdjacentButton returns the index of a button next to the player, or -1.
func (s State) AdjacentButton() int {
	for i, b := range s.Buttons {
		if b.Pos.Adjacent(s.Player.Pos) {
			return i
		}
	}
	return -1
}

// Ahead returns the cell in front of the player.
func (s State) Ahead() core.Pos {
	return s.Player.Pos.Step(s.Player.Facing)
}

// Hash returns a stable fingerprint of the state for quick comparisons.
func (s State) Hash() uint64 {
	h := fnv.New64a()
	p := s.Player
	fmt.Fprintf(h, "P:%d,%d,%d,%d,%d,%d,%q;", p.Pos.X, p.Pos.Y, p.Facing, p.Energy, p.EnergyUsed, p.HeldCrate, p.Message)
	for _, e := range s.Enemies {
		fmt.Fprintf(h, "E:%d,%d,%d;", e.Pos.X, e.Pos.Y, e.Facing)
	}
	for _, c := range s.EnergyCells {
		fmt.Fprintf(h, "C:%d,%d,%v;", c.Pos.X, c.Pos.Y, c.Collected)
	}
	for _, hz := range s.Hazards {
		fmt.Fprintf(h, "H:%d,%d,%v;", hz.Pos.X, hz.Pos.Y, hz.Active)
	}
	for _, g := range s.Gates {
		fmt.Fprintf(h, "G:%d,%d,%v;", g.Pos.X, g.Pos.Y, g.Open)
	}
	for _, b := range s.Buttons {
		fmt.Fprintf(h, "B:%d,%d,%v;", b.Pos.X, b.Pos.Y, b.Pressed)
	}
	for _, c := range s.Crates {
		fmt.Fprintf(h, "K:%d,%d,%v;", c.Pos.X, c.Pos.Y, c.Held)
	}
	for _, d := range s.DataTerminals {
		fmt.Fprintf(h, "D:%d,%d,%v;", d.Pos.X, d.Pos.Y, d.Reading)
	}
	return h.Sum64()
}
