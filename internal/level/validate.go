package level

import (
	"fmt"

	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/level/formats"
	"github.com/vovakirdan/gridbot/internal/script"
)

// Validation error codes.
const (
	CodeSchema          = "SCHEMA"
	CodeInvalidID       = "INVALID_ID"
	CodeInvalidSize     = "INVALID_SIZE"
	CodeNoStart         = "NO_START"
	CodeOutOfBounds     = "OUT_OF_BOUNDS"
	CodeOverlap         = "OVERLAP"
	CodeNoGoal          = "NO_GOAL"
	CodeBadObjective    = "BAD_OBJECTIVE"
	CodeBadOrientation  = "BAD_ORIENTATION"
	CodeBadGateRef      = "BAD_GATE_REF"
	CodeUnknownFunction = "UNKNOWN_FUNCTION"
)

// ValidationError contains details about validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks the semantic rules the schema cannot express.
func Validate(doc formats.Document) error {
	if doc.ID == "" {
		return ValidationError{Code: CodeInvalidID, Message: "level id is empty"}
	}
	if doc.Size.W <= 0 || doc.Size.H <= 0 {
		return ValidationError{
			Code:    CodeInvalidSize,
			Message: fmt.Sprintf("invalid size %dx%d", doc.Size.W, doc.Size.H),
		}
	}
	if len(doc.Starts) == 0 {
		return ValidationError{Code: CodeNoStart, Message: "level has no start position"}
	}

	switch doc.Goal {
	case GoalReach:
		if len(doc.Goals) == 0 {
			return ValidationError{Code: CodeNoGoal, Message: "goal objective without goal cells"}
		}
	case GoalNone:
	default:
		return ValidationError{Code: CodeBadObjective, Message: fmt.Sprintf("unknown goal kind %q", doc.Goal)}
	}

	if err := validateBounds(doc); err != nil {
		return err
	}
	if err := validateSolids(doc); err != nil {
		return err
	}

	for i, s := range doc.Starts {
		if _, err := parseFacing(s.Facing); err != nil {
			return ValidationError{Code: CodeBadOrientation, Message: fmt.Sprintf("start %d: %v", i, err)}
		}
	}
	for i, e := range doc.Enemies {
		if _, err := parseFacing(e.Facing); err != nil {
			return ValidationError{Code: CodeBadOrientation, Message: fmt.Sprintf("enemy %d: %v", i, err)}
		}
	}

	for i, b := range doc.Buttons {
		if b.Gate < 0 || b.Gate >= len(doc.Gates) {
			return ValidationError{
				Code:    CodeBadGateRef,
				Message: fmt.Sprintf("button %d references gate %d (have %d)", i, b.Gate, len(doc.Gates)),
			}
		}
	}

	for _, name := range doc.DisabledFunctions {
		if !script.IsBuiltin(name) {
			return ValidationError{
				Code:    CodeUnknownFunction,
				Message: fmt.Sprintf("disabled function %q is not a builtin", name),
			}
		}
	}
	return nil
}

func validateBounds(doc formats.Document) error {
	check := func(kind string, i, x, y int) error {
		if !core.P(x, y).InBounds(doc.Size.W, doc.Size.H) {
			return ValidationError{
				Code:    CodeOutOfBounds,
				Message: fmt.Sprintf("%s %d at (%d,%d) outside %dx%d grid", kind, i, x, y, doc.Size.W, doc.Size.H),
			}
		}
		return nil
	}

	for i, c := range doc.Starts {
		if err := check("start", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		kind  string
		cells []formats.Cell
	}{
		{"obstacle", doc.Obstacles},
		{"goal", doc.Goals},
		{"crate", doc.Crates},
	} {
		for i, c := range group.cells {
			if err := check(group.kind, i, c.X, c.Y); err != nil {
				return err
			}
		}
	}
	for i, c := range doc.EnergyCells {
		if err := check("energy cell", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for i, c := range doc.Enemies {
		if err := check("enemy", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for i, c := range doc.Hazards {
		if err := check("hazard", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for i, c := range doc.Terminals {
		if err := check("terminal", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for i, c := range doc.Gates {
		if err := check("gate", i, c.X, c.Y); err != nil {
			return err
		}
	}
	for i, c := range doc.Buttons {
		if err := check("button", i, c.X, c.Y); err != nil {
			return err
		}
	}
	return nil
}

// validateSolids rejects two solid entities sharing a cell, and starts placed
// on a solid cell.
func validateSolids(doc formats.Document) error {
	solid := make(map[core.Pos]string)
	add := func(kind string, x, y int) error {
		p := core.P(x, y)
		if other, ok := solid[p]; ok {
			return ValidationError{
				Code:    CodeOverlap,
				Message: fmt.Sprintf("%s and %s share cell %v", kind, other, p),
			}
		}
		solid[p] = kind
		return nil
	}

	for _, c := range doc.Obstacles {
		if err := add("obstacle", c.X, c.Y); err != nil {
			return err
		}
	}
	for _, c := range doc.Terminals {
		if err := add("terminal", c.X, c.Y); err != nil {
			return err
		}
	}
	for _, c := range doc.Buttons {
		if err := add("button", c.X, c.Y); err != nil {
			return err
		}
	}
	for _, c := range doc.Crates {
		if err := add("crate", c.X, c.Y); err != nil {
			return err
		}
	}
	for _, c := range doc.Gates {
		if c.Open {
			continue
		}
		if err := add("gate", c.X, c.Y); err != nil {
			return err
		}
	}

	for i, s := range doc.Starts {
		if kind, ok := solid[core.P(s.X, s.Y)]; ok {
			return ValidationError{
				Code:    CodeOverlap,
				Message: fmt.Sprintf("start %d placed on %s", i, kind),
			}
		}
	}
	return nil
}
