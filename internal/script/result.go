package script

import (
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/state"
)

// Stats summarises a run.
type Stats struct {
	// CodeLen counts non-blank characters outside comments.
	CodeLen    int `json:"code_len"`
	EnergyUsed int `json:"energy_used"`
	TicksTaken int `json:"ticks_taken"`
}

// Result is a completed run. States and Positions always have the same
// length and Positions[0] is nil: Positions[i] is the call that produced
// States[i].
type Result struct {
	States    []state.State `json:"states"`
	Positions []*Pos        `json:"positions"`
	Outcome   sim.Outcome   `json:"outcome"`
	Stats     Stats         `json:"stats"`
}

// Final returns the last recorded state.
func (r *Result) Final() state.State {
	return r.States[len(r.States)-1]
}

func (rc *runContext) result(src string) *Result {
	rc.reconcile()
	history := rc.sim.History()
	last := history[len(history)-1]
	return &Result{
		States:    history,
		Positions: rc.positions,
		Outcome:   rc.sim.Outcome(),
		Stats: Stats{
			CodeLen:    CodeLength(src),
			EnergyUsed: last.Player.EnergyUsed,
			TicksTaken: len(history) - 1,
		},
	}
}
