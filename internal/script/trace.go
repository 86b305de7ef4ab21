package script

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/sim"
)

// errSimulationEnded interrupts a script whose level already finished.
// Run treats it as a normal end of the script.
var errSimulationEnded = errors.New("script: simulation ended")

// frame is the statement a function invocation is executing, with the
// positions predicted for the ticks it has yet to produce.
type frame struct {
	depth   int
	pos     Pos
	pending []Pos
}

// runContext is the state shared by the trace hook and every builtin of a
// single run. The interpreter calls back into it synchronously, never from
// two goroutines at once.
type runContext struct {
	ctx    context.Context
	vm     *goja.Runtime
	sim    *sim.Simulation
	limits Limits
	logger *log.Logger

	plans    []plan
	calls    []Pos
	disabled map[string]bool

	// positions holds one entry per recorded state.
	positions []*Pos
	frames    []frame
	ops       int

	// callPos is the position the last call marker reported. An effect
	// builtin takes it on entry and keeps it in active while it runs.
	callPos     *Pos
	active      *Pos
	activeDepth int

	owners map[ownerKey][]*goja.Object
	stack  []goja.StackFrame

	// speculating is set while argument closures run inside the hook.
	speculating bool
	// halted is set once the run has been interrupted.
	halted bool
}

func newRunContext(ctx context.Context, vm *goja.Runtime, s *sim.Simulation, limits Limits, logger *log.Logger) *runContext {
	return &runContext{
		ctx:       ctx,
		vm:        vm,
		sim:       s,
		limits:    limits,
		logger:    logger,
		positions: []*Pos{nil},
		owners:    make(map[ownerKey][]*goja.Object),
	}
}

func (rc *runContext) interrupt(v any) {
	rc.halted = true
	rc.vm.Interrupt(v)
}

// countOp charges one operation and interrupts the run past the limit.
func (rc *runContext) countOp() bool {
	rc.ops++
	if rc.ops > rc.limits.MaxOperations {
		rc.interrupt(newError(KindLimit, rc.errorPos(), "operation limit of %d exceeded", rc.limits.MaxOperations))
		return false
	}
	return true
}

// depth is the number of frames on the interpreter's call stack, counting
// the native function asking.
func (rc *runContext) depth() int {
	rc.stack = rc.vm.CaptureCallStack(0, rc.stack[:0])
	return len(rc.stack)
}

// leave drops the frames of invocations deeper than depth. They have
// returned or thrown.
func (rc *runContext) leave(depth int) {
	n := len(rc.frames)
	for n > 0 && rc.frames[n-1].depth > depth {
		n--
	}
	rc.frames = rc.frames[:n]
}

// statementPos is the statement the innermost live invocation is running.
func (rc *runContext) statementPos() *Pos {
	if len(rc.frames) == 0 {
		return nil
	}
	p := rc.frames[len(rc.frames)-1].pos
	return &p
}

// errorPos is where an error raised now is reported: the running effect
// builtin's call, or else the current statement.
func (rc *runContext) errorPos() *Pos {
	if rc.active != nil {
		p := *rc.active
		return &p
	}
	return rc.statementPos()
}

// orientation backs get_orientation and the turn prediction of absolute
// moves.
func (rc *runContext) orientation() core.Orientation {
	return rc.sim.Current().Player.Facing
}

// trace is called before every statement and loop test. It predicts the
// ticks the statement's builtin calls will produce and keeps them as the
// pending positions of the invocation running it.
func (rc *runContext) trace(call goja.FunctionCall) goja.Value {
	if rc.halted {
		return goja.Undefined()
	}
	if !rc.countOp() {
		return goja.Undefined()
	}
	if err := rc.ctx.Err(); err != nil {
		rc.interrupt(err)
		return goja.Undefined()
	}
	if rc.speculating {
		return goja.Undefined()
	}
	if rc.sim.Outcome().IsTerminal() {
		rc.interrupt(errSimulationEnded)
		return goja.Undefined()
	}

	rc.callPos = nil
	id := int(call.Argument(0).ToInteger())
	if id <= 0 || id >= len(rc.plans) {
		return goja.Undefined()
	}
	p := rc.plans[id]

	f := frame{depth: rc.depth(), pos: p.pos}
	facing := rc.orientation()
	budget := rc.limits.MaxOperations - rc.ops
	for _, c := range p.calls {
		n := min(rc.predict(c, call, &facing), budget)
		budget -= n
		for range n {
			f.pending = append(f.pending, c.pos)
		}
	}

	rc.leave(f.depth)
	if n := len(rc.frames); n > 0 && rc.frames[n-1].depth == f.depth {
		rc.frames[n-1] = f
	} else {
		rc.frames = append(rc.frames, f)
	}
	return goja.Undefined()
}

// mark records the position of the effect builtin call about to run and
// passes its last argument through.
func (rc *runContext) mark(call goja.FunctionCall) goja.Value {
	id := int(call.Argument(0).ToInteger())
	if id >= 0 && id < len(rc.calls) {
		p := rc.calls[id]
		rc.callPos = &p
	}
	return call.Argument(1)
}

// predict returns the number of ticks c will produce, advancing facing
// past any turns it makes.
func (rc *runContext) predict(c planCall, call goja.FunctionCall, facing *core.Orientation) int {
	if c.b.turn != nil {
		*facing = facing.Rotate(*c.b.turn)
		return 1
	}
	if !c.b.counted {
		return 1
	}
	n := rc.predictCount(c, call)
	if n <= 0 {
		return 0
	}
	if c.b.absolute {
		turns := len(core.TurnsBetween(*facing, c.b.dir))
		*facing = c.b.dir
		return turns + n
	}
	return n
}

func (rc *runContext) predictCount(c planCall, call goja.FunctionCall) int {
	if c.known {
		return c.fixed
	}
	if c.thunk < 0 {
		return 0
	}
	fn, ok := goja.AssertFunction(call.Argument(c.thunk + 1))
	if !ok {
		return 0
	}

	rc.speculating = true
	v, err := fn(goja.Undefined())
	rc.speculating = false
	if err != nil {
		rc.logger.Debug("argument prediction failed", "pos", c.pos.String(), "err", err)
		return 0
	}
	args := v.ToObject(rc.vm)
	n, err := countArg(args.Get("0"))
	if err != nil {
		return 0
	}
	return n
}

// record attributes the tick just taken. The running builtin's own call
// position wins; a prediction or the current statement fills in for calls
// made without a marker.
func (rc *runContext) record() {
	rc.leave(rc.activeDepth)

	var predicted *Pos
	if n := len(rc.frames); n > 0 {
		f := &rc.frames[n-1]
		if len(f.pending) > 0 {
			p := f.pending[0]
			predicted = &p
			f.pending = f.pending[1:]
		}
	}

	pos := rc.active
	switch {
	case pos == nil && predicted != nil:
		pos = predicted
	case pos == nil:
		pos = rc.statementPos()
	case predicted != nil && *predicted != *pos:
		rc.logger.Debug("tick attributed away from prediction", "predicted", predicted.String(), "call", pos.String())
	}
	if pos != nil {
		p := *pos
		pos = &p
	}
	rc.positions = append(rc.positions, pos)
}

// reconcile makes positions line up with the history exactly.
func (rc *runContext) reconcile() {
	n := rc.sim.Len()
	if len(rc.positions) > n {
		rc.positions = rc.positions[:n]
	}
	for len(rc.positions) < n {
		rc.positions = append(rc.positions, rc.statementPos())
	}
	rc.positions[0] = nil
}
