package actor

import "github.com/vovakirdan/gridbot/internal/state"

// Hazard switches a hazard cell on and off on a fixed schedule. The actor
// counts its own applications, so a fresh actor is required per level load.
type Hazard struct {
	Index  int
	Period int
	Offset int

	ticks int
}

// NewHazard creates a timed hazard actor. A period of zero or less keeps the
// hazard permanently active.
func NewHazard(i, period, offset int) *Hazard {
	return &Hazard{Index: i, Period: period, Offset: offset}
}

// Apply advances the schedule by one tick.
func (h *Hazard) Apply(s state.State) state.State {
	h.ticks++
	next := s.Clone()
	if h.Index < 0 || h.Index >= len(next.Hazards) {
		return next
	}
	next.Hazards[h.Index].Active = h.ActiveAt(h.ticks)
	return next
}

// ActiveAt reports whether the hazard is on after n applications.
func (h *Hazard) ActiveAt(n int) bool {
	if h.Period <= 0 {
		return true
	}
	return (n+h.Offset)%h.Period == 0
}
