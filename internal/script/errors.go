package script

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies script errors.
type Kind string

const (
	// KindCompile covers syntax errors and calls to unknown functions.
	KindCompile Kind = "compile"
	// KindPrecheck is a missing statement terminator.
	KindPrecheck Kind = "precheck"
	// KindDisabled is a call to a builtin the level locks.
	KindDisabled Kind = "disabled"
	// KindRuntime is an error raised while the script runs.
	KindRuntime Kind = "runtime"
	// KindLimit is an engine safeguard tripping.
	KindLimit Kind = "limit"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrCompile  = errors.New("compile error")
	ErrPrecheck = errors.New("precheck error")
	ErrDisabled = errors.New("disabled function")
	ErrRuntime  = errors.New("runtime error")
	ErrLimit    = errors.New("limit exceeded")
)

// Pos is a 1-based source position.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is the structured failure of a script run. No ticks are reported
// alongside it.
type Error struct {
	Kind    Kind
	Message string
	// Func names the builtin involved, if any.
	Func string
	// Pos is nil when the interpreter could not supply a position.
	Pos *Pos
}

func (e *Error) Error() string {
	if e.Pos == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Pos, e.Message)
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCompile:
		return e.Kind == KindCompile
	case ErrPrecheck:
		return e.Kind == KindPrecheck
	case ErrDisabled:
		return e.Kind == KindDisabled
	case ErrRuntime:
		return e.Kind == KindRuntime
	case ErrLimit:
		return e.Kind == KindLimit
	}
	return false
}

// Line returns the 1-based line, or 0 when unknown.
func (e *Error) Line() int {
	if e.Pos == nil {
		return 0
	}
	return e.Pos.Line
}

// Col returns the 1-based column, or 0 when unknown.
func (e *Error) Col() int {
	if e.Pos == nil {
		return 0
	}
	return e.Pos.Col
}

type errorJSON struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Func    string `json:"func,omitempty"`
	Line    *int   `json:"line"`
	Col     *int   `json:"col"`
}

// MarshalJSON encodes unknown positions as null.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := errorJSON{Kind: e.Kind, Message: e.Message, Func: e.Func}
	if e.Pos != nil {
		line, col := e.Pos.Line, e.Pos.Col
		out.Line, out.Col = &line, &col
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the MarshalJSON form.
func (e *Error) UnmarshalJSON(data []byte) error {
	var in errorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Error{Kind: in.Kind, Message: in.Message, Func: in.Func}
	if in.Line != nil {
		e.Pos = &Pos{Line: *in.Line}
		if in.Col != nil {
			e.Pos.Col = *in.Col
		}
	}
	return nil
}

func newError(kind Kind, pos *Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
