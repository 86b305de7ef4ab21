package core

import (
	"fmt"
	"strings"
)

// Orientation is the direction an entity faces on the grid.
// Values are ordered clockwise so rotations are modular arithmetic.
type Orientation uint8

const (
	OrientationUp Orientation = iota
	OrientationRight
	OrientationDown
	OrientationLeft
)

// Orientations lists all orientations in clockwise order.
var Orientations = []Orientation{OrientationUp, OrientationRight, OrientationDown, OrientationLeft}

// String returns the lowercase name used by scripts and level files.
func (o Orientation) String() string {
	switch o {
	case OrientationUp:
		return "up"
	case OrientationRight:
		return "right"
	case OrientationDown:
		return "down"
	case OrientationLeft:
		return "left"
	default:
		return "unknown"
	}
}

// ParseOrientation parses an orientation name (case-insensitive).
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "north":
		return OrientationUp, true
	case "right", "east":
		return OrientationRight, true
	case "down", "south":
		return OrientationDown, true
	case "left", "west":
		return OrientationLeft, true
	default:
		return OrientationUp, false
	}
}

// Delta returns the (dx, dy) offset for one step in this orientation.
// Up decreases Y, Down increases Y (screen coordinates).
func (o Orientation) Delta() (dx, dy int) {
	switch o {
	case OrientationUp:
		return 0, -1
	case OrientationRight:
		return 1, 0
	case OrientationDown:
		return 0, 1
	case OrientationLeft:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the orientation facing the other way.
func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

// Rotate returns the orientation after applying one turn.
func (o Orientation) Rotate(t Turn) Orientation {
	switch t {
	case TurnRight:
		return (o + 1) % 4
	case TurnLeft:
		return (o + 3) % 4
	default:
		return o
	}
}

// Turn is a single quarter rotation.
type Turn uint8

const (
	TurnLeft Turn = iota
	TurnRight
)

// String returns the turn name.
func (t Turn) String() string {
	if t == TurnLeft {
		return "left"
	}
	return "right"
}

// TurnsBetween returns the shortest sequence of quarter turns that rotates
// from into to. A half rotation is two right turns.
func TurnsBetween(from, to Orientation) []Turn {
	switch (to + 4 - from) % 4 {
	case 0:
		return nil
	case 1:
		return []Turn{TurnRight}
	case 3:
		return []Turn{TurnLeft}
	default:
		return []Turn{TurnRight, TurnRight}
	}
}

// Pos is a cell coordinate. X grows to the right, Y grows downward.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// P is a convenience constructor for Pos.
func P(x, y int) Pos {
	return Pos{X: x, Y: y}
}

// String returns a string representation of the position.
func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns a new Pos offset by (dx, dy).
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Step returns the neighbouring cell in the given orientation.
func (p Pos) Step(o Orientation) Pos {
	dx, dy := o.Delta()
	return p.Add(dx, dy)
}

// Manhattan returns the Manhattan distance to another position.
func (p Pos) Manhattan(other Pos) int {
	return Abs(p.X-other.X) + Abs(p.Y-other.Y)
}

// Adjacent reports whether other shares an edge with p.
func (p Pos) Adjacent(other Pos) bool {
	return p.Manhattan(other) == 1
}

// InBounds reports whether p lies inside a w x h grid.
func (p Pos) InBounds(w, h int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h
}
