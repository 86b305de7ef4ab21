// Package action defines the requests a script can make of the player rover
// and the mailbox that carries them from script builtins to the simulation.
package action

import (
	"fmt"

	"github.com/vovakirdan/gridbot/internal/core"
)

// Kind identifies the variant of an Action.
type Kind int

const (
	KindWait Kind = iota
	KindMove
	KindTurn
	KindSay
	KindReadData
	KindPressButton
	KindPickUp
	KindDrop
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWait:
		return "wait"
	case KindMove:
		return "move"
	case KindTurn:
		return "turn"
	case KindSay:
		return "say"
	case KindReadData:
		return "read_data"
	case KindPressButton:
		return "press_button"
	case KindPickUp:
		return "pick_up"
	case KindDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// MoveDirection is relative to the player's facing.
type MoveDirection int

const (
	Forward MoveDirection = iota
	Backward
)

// Action is one request consumed by the player actor in a single tick.
// Only the fields relevant to Kind are meaningful.
type Action struct {
	Kind Kind
	Move MoveDirection
	Turn core.Turn
	Text string
}

// Wait does nothing for one tick.
func Wait() Action { return Action{Kind: KindWait} }

// Move moves the player one cell forward or backward.
func Move(d MoveDirection) Action { return Action{Kind: KindMove, Move: d} }

// Turn rotates the player a quarter turn.
func Turn(t core.Turn) Action { return Action{Kind: KindTurn, Turn: t} }

// Say sets the player's message for one tick.
func Say(text string) Action { return Action{Kind: KindSay, Text: text} }

// ReadData reads the adjacent data terminal.
func ReadData() Action { return Action{Kind: KindReadData} }

// PressButton presses the adjacent button.
func PressButton() Action { return Action{Kind: KindPressButton} }

// PickUp lifts the crate in front of the player.
func PickUp() Action { return Action{Kind: KindPickUp} }

// Drop puts the held crate down in front of the player.
func Drop() Action { return Action{Kind: KindDrop} }

// String returns a readable form for logs.
func (a Action) String() string {
	switch a.Kind {
	case KindMove:
		if a.Move == Backward {
			return "move(backward)"
		}
		return "move(forward)"
	case KindTurn:
		return fmt.Sprintf("turn(%s)", a.Turn)
	case KindSay:
		return fmt.Sprintf("say(%q)", a.Text)
	default:
		return a.Kind.String()
	}
}
