package script

import (
	"slices"

	"github.com/vovakirdan/gridbot/internal/core"
)

// builtin describes one function scripts may call.
type builtin struct {
	name string
	// effect builtins advance the simulation; the rest are pure queries.
	effect bool
	// counted builtins take a tick count argument that defaults to 1.
	counted bool
	// absolute moves turn toward dir before moving.
	absolute bool
	dir      core.Orientation
	// turn is set for turn_left and turn_right.
	turn *core.Turn
}

var (
	turnLeft  = core.TurnLeft
	turnRight = core.TurnRight
)

var catalog = []builtin{
	{name: "move_forward", effect: true, counted: true},
	{name: "move_backward", effect: true, counted: true},
	{name: "wait", effect: true, counted: true},
	{name: "turn_left", effect: true, turn: &turnLeft},
	{name: "turn_right", effect: true, turn: &turnRight},
	{name: "move_up", effect: true, counted: true, absolute: true, dir: core.OrientationUp},
	{name: "move_down", effect: true, counted: true, absolute: true, dir: core.OrientationDown},
	{name: "move_left", effect: true, counted: true, absolute: true, dir: core.OrientationLeft},
	{name: "move_right", effect: true, counted: true, absolute: true, dir: core.OrientationRight},
	{name: "say", effect: true},
	{name: "read_data", effect: true},
	{name: "press_button", effect: true},
	{name: "pick_up", effect: true},
	{name: "drop", effect: true},
	{name: "get_orientation"},
	{name: "get_position"},
	{name: "get_energy"},
}

func lookupBuiltin(name string) (builtin, bool) {
	for _, b := range catalog {
		if b.name == name {
			return b, true
		}
	}
	return builtin{}, false
}

// Builtins lists every builtin function name.
func Builtins() []string {
	names := make([]string, len(catalog))
	for i, b := range catalog {
		names[i] = b.name
	}
	return names
}

// IsBuiltin reports whether name is a builtin function.
func IsBuiltin(name string) bool {
	_, ok := lookupBuiltin(name)
	return ok
}

// allowedGlobals are the standard functions scripts may call by bare name.
var allowedGlobals = []string{
	"Array", "Boolean", "Error", "Number", "Object", "RangeError", "String",
	"TypeError", "isFinite", "isNaN", "parseFloat", "parseInt",
}

func isAllowedGlobal(name string) bool {
	return slices.Contains(allowedGlobals, name)
}
