package sim

import "fmt"

// OutcomeKind is the state of the win/lose machine.
type OutcomeKind int

const (
	// Continue means the level is still being played.
	Continue OutcomeKind = iota
	// NoObjective means the level has no win condition; running is the goal.
	NoObjective
	// Success is terminal: the objective was met.
	Success
	// Failure is terminal: the run was lost. Reason says why.
	Failure
)

// String returns the kind name.
func (k OutcomeKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case NoObjective:
		return "no_objective"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *OutcomeKind) UnmarshalText(b []byte) error {
	kind, ok := ParseOutcomeKind(string(b))
	if !ok {
		return fmt.Errorf("sim: unknown outcome %q", b)
	}
	*k = kind
	return nil
}

// ParseOutcomeKind parses a kind name.
func ParseOutcomeKind(s string) (OutcomeKind, bool) {
	for _, k := range []OutcomeKind{Continue, NoObjective, Success, Failure} {
		if k.String() == s {
			return k, true
		}
	}
	return Continue, false
}

// Outcome is the result of a win check.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// Continuing is the outcome of a level that is still running.
func Continuing() Outcome { return Outcome{Kind: Continue} }

// NoGoal is the outcome of a running level without an objective.
func NoGoal() Outcome { return Outcome{Kind: NoObjective} }

// Won is a successful outcome.
func Won() Outcome { return Outcome{Kind: Success} }

// Lost is a failed outcome with a reason.
func Lost(reason string) Outcome { return Outcome{Kind: Failure, Reason: reason} }

// IsTerminal reports whether no more ticks may be applied.
func (o Outcome) IsTerminal() bool {
	return o.Kind == Success || o.Kind == Failure
}

// String returns a short description.
func (o Outcome) String() string {
	if o.Kind == Failure && o.Reason != "" {
		return fmt.Sprintf("failure: %s", o.Reason)
	}
	return o.Kind.String()
}
