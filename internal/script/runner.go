// Package script runs learner scripts against a level. Every builtin call
// advances the simulation synchronously while a hook inserted before each
// statement records which source position produced each tick.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/vovakirdan/gridbot/internal/sim"
)

const scriptName = "main.js"

// Limits bound what a single run may consume.
type Limits struct {
	MaxOperations int `yaml:"max_operations" json:"max_operations"`
	MaxCallDepth  int `yaml:"max_call_depth" json:"max_call_depth"`
	MaxExprDepth  int `yaml:"max_expr_depth" json:"max_expr_depth"`
	MaxStringSize int `yaml:"max_string_size" json:"max_string_size"`
	MaxArraySize  int `yaml:"max_array_size" json:"max_array_size"`
	MaxMapSize    int `yaml:"max_map_size" json:"max_map_size"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxOperations: 100000,
		MaxCallDepth:  32,
		MaxExprDepth:  32,
		MaxStringSize: 1024,
		MaxArraySize:  1024,
		MaxMapSize:    256,
	}
}

// withDefaults fills zero fields from DefaultLimits.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&l.MaxOperations, d.MaxOperations)
	fill(&l.MaxCallDepth, d.MaxCallDepth)
	fill(&l.MaxExprDepth, d.MaxExprDepth)
	fill(&l.MaxStringSize, d.MaxStringSize)
	fill(&l.MaxArraySize, d.MaxArraySize)
	fill(&l.MaxMapSize, d.MaxMapSize)
	return l
}

// Runner executes scripts. It holds no per-run state and may be shared.
type Runner struct {
	limits Limits
	logger *log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLimits overrides the default limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(r *Runner) {
		r.limits = l.withDefaults()
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		limits: DefaultLimits(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limits returns the limits the runner enforces.
func (r *Runner) Limits() Limits {
	return r.limits
}

// Check validates src for lvl without running it.
func (r *Runner) Check(lvl sim.Level, src string) error {
	_, _, err := r.prepare(lvl, src)
	return err
}

// Run executes src against state stateIdx of lvl. Script failures are
// returned as *Error and produce no Result. A script that ends the level
// before its last statement is not a failure.
func (r *Runner) Run(ctx context.Context, lvl sim.Level, stateIdx int, src string) (*Result, error) {
	ins, prg, err := r.prepare(lvl, src)
	if err != nil {
		return nil, err
	}

	s := sim.New(r.logger)
	if err := s.Load(lvl, stateIdx); err != nil {
		return nil, err
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(r.limits.MaxCallDepth)
	vm.SetRandSource(rand.New(rand.NewSource(1)).Float64)

	rc := newRunContext(ctx, vm, s, r.limits, r.logger)
	rc.plans = ins.plans
	rc.calls = ins.calls
	rc.disabled = disabledSet(lvl)
	if err := rc.install(); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	_, runErr := vm.RunProgram(prg)
	if err := rc.runError(runErr); err != nil {
		r.logger.Debug("script failed", "level", lvl.ID(), "err", err)
		return nil, err
	}

	res := rc.result(src)
	r.logger.Debug("script finished", "level", lvl.ID(), "ticks", res.Stats.TicksTaken, "outcome", res.Outcome.String())
	return res, nil
}

func disabledSet(lvl sim.Level) map[string]bool {
	set := make(map[string]bool)
	for _, name := range lvl.DisabledFunctions() {
		set[name] = true
	}
	return set
}

// prepare parses, checks, instruments and compiles src.
func (r *Runner) prepare(lvl sim.Level, src string) (*instrumented, *goja.Program, error) {
	prg, err := parse(src)
	if err != nil {
		return nil, nil, err
	}
	prg.disabled = disabledSet(lvl)
	if err := prg.check(r.limits); err != nil {
		return nil, nil, err
	}
	if err := prg.precheck(); err != nil {
		return nil, nil, err
	}
	if _, err := goja.Compile(scriptName, src, false); err != nil {
		return nil, nil, compileError(err, prg.src, nil)
	}

	ins := instrument(prg)
	compiled, err := goja.Compile(scriptName, ins.code, false)
	if err != nil {
		r.logger.Error("instrumented script does not compile", "err", err)
		return nil, nil, compileError(err, prg.src, ins)
	}
	return ins, compiled, nil
}

func parse(src string) (*program, error) {
	text := newSource(src)
	tree, err := parser.ParseFile(nil, scriptName, src, 0)
	if err != nil {
		var list parser.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			first := list[0]
			return nil, newError(KindCompile, &Pos{Line: first.Position.Line, Col: first.Position.Column}, "%s", first.Message)
		}
		return nil, newError(KindCompile, nil, "%s", err.Error())
	}
	prg := &program{
		src:      text,
		ast:      tree,
		declared: declaredNames(tree),
	}
	prg.pureFuncs = prg.pureFunctions()
	return prg, nil
}

// compileError converts an interpreter compile error. Offsets into
// instrumented code are mapped back to the original source.
func compileError(err error, src *source, ins *instrumented) *Error {
	var syntax *goja.CompilerSyntaxError
	var ref *goja.CompilerReferenceError
	var ce *goja.CompilerError
	switch {
	case errors.As(err, &syntax):
		ce = &syntax.CompilerError
	case errors.As(err, &ref):
		ce = &ref.CompilerError
	default:
		return newError(KindCompile, nil, "%s", err.Error())
	}
	off := ce.Offset
	if ins != nil {
		off = ins.originalOffset(off)
	}
	pos := src.pos(off)
	return newError(KindCompile, &pos, "%s", ce.Message)
}

// runError classifies what RunProgram returned.
func (rc *runContext) runError(err error) error {
	if err == nil {
		return nil
	}

	var (
		interrupted *goja.InterruptedError
		overflow    *goja.StackOverflowError
		serr        *Error
		ex          *goja.Exception
	)
	switch {
	case errors.As(err, &interrupted):
		switch v := interrupted.Value().(type) {
		case *Error:
			return v
		case error:
			if errors.Is(v, errSimulationEnded) {
				return nil
			}
			return fmt.Errorf("script: run interrupted: %w", v)
		default:
			return fmt.Errorf("script: run interrupted: %v", v)
		}

	case errors.As(err, &overflow):
		rc.unwindTo(overflow.Stack())
		return newError(KindLimit, rc.statementPos(), "call depth limit of %d exceeded", rc.limits.MaxCallDepth)

	case errors.As(err, &serr):
		// a builtin's error, possibly caught and thrown again
		return serr

	case errors.As(err, &ex):
		rc.unwindTo(ex.Stack())
		msg := err.Error()
		if ex.Value() != nil {
			msg = ex.Value().String()
		}
		return newError(KindRuntime, rc.statementPos(), "%s", msg)
	}
	return newError(KindRuntime, rc.statementPos(), "%s", err.Error())
}

// unwindTo drops the frames of invocations deeper than the function an
// exception was raised in. A native function on top stands in for the
// native hook frame the trace hook counts.
func (rc *runContext) unwindTo(stack []goja.StackFrame) {
	if len(stack) == 0 {
		return
	}
	depth := len(stack) + 1
	if stack[0].SrcName() == "<native>" {
		depth = len(stack)
	}
	rc.leave(depth)
}
