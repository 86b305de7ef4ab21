package actor

import (
	"github.com/vovakirdan/gridbot/internal/action"
	"github.com/vovakirdan/gridbot/internal/state"
)

// Player applies the next queued action to the rover. With an empty queue the
// tick behaves like a wait.
type Player struct {
	queue *action.Queue
}

// NewPlayer creates the player actor reading from q.
func NewPlayer(q *action.Queue) *Player {
	return &Player{queue: q}
}

// Apply consumes at most one action.
func (p *Player) Apply(s state.State) state.State {
	next := s.Clone()
	next.Player.Message = ""
	for i := range next.DataTerminals {
		next.DataTerminals[i].Reading = false
	}

	a, ok := p.queue.TryReceive()
	if !ok {
		return next
	}

	switch a.Kind {
	case action.KindMove:
		move(&next, a.Move)
	case action.KindTurn:
		next.Player.Facing = next.Player.Facing.Rotate(a.Turn)
	case action.KindSay:
		say(&next, a.Text)
	case action.KindReadData:
		if i := next.AdjacentTerminal(); i >= 0 {
			next.DataTerminals[i].Reading = true
		}
	case action.KindPressButton:
		pressButton(&next)
	case action.KindPickUp:
		pickUp(&next)
	case action.KindDrop:
		drop(&next)
	}
	return next
}

// move shifts the player one cell. A move is refused, not partially applied,
// when energy is exhausted or the target is blocked; the tick still passes.
func move(s *state.State, d action.MoveDirection) {
	if s.Player.Energy <= 0 {
		return
	}
	facing := s.Player.Facing
	if d == action.Backward {
		facing = facing.Opposite()
	}
	target := s.Player.Pos.Step(facing)
	if s.Blocked(target) {
		return
	}

	s.Player.Pos = target
	s.Player.Energy--
	s.Player.EnergyUsed++
	if s.Player.Holding() {
		s.Crates[s.Player.HeldCrate].Pos = target
	}

	for i := range s.EnergyCells {
		c := &s.EnergyCells[i]
		if !c.Collected && c.Pos == target {
			c.Collected = true
			s.Player.Energy += c.Amount
		}
	}
}

func say(s *state.State, text string) {
	s.Player.Message = text
	for i := range s.Gates {
		g := &s.Gates[i]
		if g.Password != "" && !g.Open && g.Password == text && g.Pos.Adjacent(s.Player.Pos) {
			g.Open = true
		}
	}
}

func pressButton(s *state.State) {
	i := s.AdjacentButton()
	if i < 0 {
		return
	}
	b := &s.Buttons[i]
	b.Pressed = !b.Pressed
	if b.Gate >= 0 && b.Gate < len(s.Gates) {
		s.Gates[b.Gate].Open = !s.Gates[b.Gate].Open
	}
}

func pickUp(s *state.State) {
	if s.Player.Holding() {
		return
	}
	i := s.CrateAt(s.Ahead())
	if i < 0 {
		return
	}
	s.Crates[i].Held = true
	s.Crates[i].Pos = s.Player.Pos
	s.Player.HeldCrate = i
}

func drop(s *state.State) {
	if !s.Player.Holding() {
		return
	}
	target := s.Ahead()
	if s.Blocked(target) || s.EnemyAt(target) >= 0 {
		return
	}
	c := &s.Crates[s.Player.HeldCrate]
	c.Held = false
	c.Pos = target
	s.Player.HeldCrate = state.NoCrate
}
