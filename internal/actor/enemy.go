package actor

import (
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/state"
)

// Enemy chases the player. Each tick it either rotates one quarter turn
// toward the player or, when already facing the right way, steps forward.
// It only sees the state produced by actors applied before it.
type Enemy struct {
	Index int
}

// NewEnemy creates an enemy actor for the enemy at index i.
func NewEnemy(i int) *Enemy {
	return &Enemy{Index: i}
}

// Apply moves or turns the enemy.
func (e *Enemy) Apply(s state.State) state.State {
	next := s.Clone()
	if e.Index < 0 || e.Index >= len(next.Enemies) {
		return next
	}
	en := &next.Enemies[e.Index]
	target := next.Player.Pos
	if en.Pos == target {
		return next
	}

	want := ChaseOrientation(en.Pos, target)
	if turns := core.TurnsBetween(en.Facing, want); len(turns) > 0 {
		en.Facing = en.Facing.Rotate(turns[0])
		return next
	}

	step := en.Pos.Step(en.Facing)
	if next.Blocked(step) {
		return next
	}
	if other := next.EnemyAt(step); other >= 0 && other != e.Index {
		return next
	}
	en.Pos = step
	return next
}

// ChaseOrientation picks the direction that closes the larger axis distance
// from "from" to "to". Ties prefer the horizontal axis.
func ChaseOrientation(from, to core.Pos) core.Orientation {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if core.Abs(dx) >= core.Abs(dy) && dx != 0 {
		if dx > 0 {
			return core.OrientationRight
		}
		return core.OrientationLeft
	}
	if dy > 0 {
		return core.OrientationDown
	}
	return core.OrientationUp
}
