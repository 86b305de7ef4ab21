package script

import (
	"errors"
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/vovakirdan/gridbot/internal/action"
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/state"
)

var errSpeculative = errors.New("effects are not allowed here")

// countArg converts a tick count argument. Undefined means one.
func countArg(v goja.Value) (int, error) {
	if v == nil || goja.IsUndefined(v) {
		return 1, nil
	}
	var f float64
	switch x := v.Export().(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	default:
		return 0, fmt.Errorf("count must be a number, got %s", v.String())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("count must be a non-negative integer, got %s", v.String())
	}
	return int(f), nil
}

// fail raises a script exception carrying a structured error.
func (rc *runContext) fail(kind Kind, fn, format string, args ...any) {
	err := newError(kind, rc.errorPos(), format, args...)
	err.Func = fn
	panic(rc.vm.NewGoError(err))
}

// step sends one action and advances the simulation by one tick. It reports
// whether the script may keep stepping.
func (rc *runContext) step(a action.Action) bool {
	if rc.halted || rc.sim.Outcome().IsTerminal() {
		return false
	}
	if !rc.countOp() {
		return false
	}
	rc.sim.Queue().Send(a)
	out := rc.sim.StepForward()
	rc.record()
	return !out.IsTerminal()
}

// effect wraps an effect builtin: it refuses to run during prediction and
// does nothing once the level is over. While it runs, its ticks and errors
// belong to the call site the marker reported.
func (rc *runContext) effect(fn func(call goja.FunctionCall) goja.Value) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if rc.speculating {
			panic(rc.vm.NewGoError(errSpeculative))
		}
		pos := rc.callPos
		rc.callPos = nil
		if rc.halted || rc.sim.Outcome().IsTerminal() {
			return goja.Undefined()
		}

		prevPos, prevDepth := rc.active, rc.activeDepth
		rc.active, rc.activeDepth = pos, rc.depth()
		defer func() {
			rc.active, rc.activeDepth = prevPos, prevDepth
		}()
		rc.leave(rc.activeDepth)
		return fn(call)
	}
}

func (rc *runContext) count(name string, call goja.FunctionCall) int {
	n, err := countArg(call.Argument(0))
	if err != nil {
		rc.fail(KindRuntime, name, "%s: %v", name, err)
	}
	return n
}

func (rc *runContext) repeat(n int, a action.Action) {
	for range n {
		if !rc.step(a) {
			return
		}
	}
}

func (rc *runContext) builtinFunc(b builtin) func(goja.FunctionCall) goja.Value {
	if rc.disabled[b.name] {
		return func(goja.FunctionCall) goja.Value {
			rc.fail(KindDisabled, b.name, "%s() is not available in this level", b.name)
			return goja.Undefined()
		}
	}

	switch {
	case b.turn != nil:
		t := *b.turn
		return rc.effect(func(goja.FunctionCall) goja.Value {
			rc.step(action.Turn(t))
			return goja.Undefined()
		})
	case b.absolute:
		return rc.effect(func(call goja.FunctionCall) goja.Value {
			n := rc.count(b.name, call)
			if n == 0 {
				return goja.Undefined()
			}
			for _, t := range core.TurnsBetween(rc.orientation(), b.dir) {
				if !rc.step(action.Turn(t)) {
					return goja.Undefined()
				}
			}
			rc.repeat(n, action.Move(action.Forward))
			return goja.Undefined()
		})
	}

	switch b.name {
	case "move_forward":
		return rc.effect(func(call goja.FunctionCall) goja.Value {
			rc.repeat(rc.count(b.name, call), action.Move(action.Forward))
			return goja.Undefined()
		})
	case "move_backward":
		return rc.effect(func(call goja.FunctionCall) goja.Value {
			rc.repeat(rc.count(b.name, call), action.Move(action.Backward))
			return goja.Undefined()
		})
	case "wait":
		return rc.effect(func(call goja.FunctionCall) goja.Value {
			rc.repeat(rc.count(b.name, call), action.Wait())
			return goja.Undefined()
		})
	case "say":
		return rc.effect(rc.say)
	case "read_data":
		return rc.effect(rc.readData)
	case "press_button":
		return rc.effect(rc.pressButton)
	case "pick_up":
		return rc.effect(rc.pickUp)
	case "drop":
		return rc.effect(rc.drop)
	case "get_orientation":
		return func(goja.FunctionCall) goja.Value {
			return rc.vm.ToValue(rc.orientation().String())
		}
	case "get_position":
		return func(goja.FunctionCall) goja.Value {
			p := rc.sim.Current().Player.Pos
			obj := rc.vm.NewObject()
			_ = obj.Set("x", p.X)
			_ = obj.Set("y", p.Y)
			return obj
		}
	case "get_energy":
		return func(goja.FunctionCall) goja.Value {
			return rc.vm.ToValue(rc.sim.Current().Player.Energy)
		}
	}
	panic(fmt.Sprintf("script: builtin %s has no implementation", b.name))
}

func (rc *runContext) say(call goja.FunctionCall) goja.Value {
	text := ""
	if arg := call.Argument(0); !goja.IsUndefined(arg) {
		text = arg.String()
	}
	if len(text) > rc.limits.MaxStringSize {
		rc.fail(KindLimit, "say", "say: message longer than %d characters", rc.limits.MaxStringSize)
	}
	rc.step(action.Say(text))
	return goja.Undefined()
}

func (rc *runContext) readData(goja.FunctionCall) goja.Value {
	cur := rc.sim.Current()
	i := cur.AdjacentTerminal()
	if i < 0 {
		rc.fail(KindRuntime, "read_data", "read_data: no data terminal next to the rover")
	}
	rc.step(action.ReadData())
	return rc.vm.ToValue(cur.DataTerminals[i].Data)
}

func (rc *runContext) pressButton(goja.FunctionCall) goja.Value {
	if rc.sim.Current().AdjacentButton() < 0 {
		rc.fail(KindRuntime, "press_button", "press_button: no button next to the rover")
	}
	rc.step(action.PressButton())
	return goja.Undefined()
}

func (rc *runContext) pickUp(goja.FunctionCall) goja.Value {
	cur := rc.sim.Current()
	if cur.Player.Holding() {
		rc.fail(KindRuntime, "pick_up", "pick_up: already carrying a crate")
	}
	if cur.CrateAt(cur.Ahead()) < 0 {
		rc.fail(KindRuntime, "pick_up", "pick_up: no crate in front of the rover")
	}
	rc.step(action.PickUp())
	return goja.Undefined()
}

func (rc *runContext) drop(goja.FunctionCall) goja.Value {
	cur := rc.sim.Current()
	if !cur.Player.Holding() {
		rc.fail(KindRuntime, "drop", "drop: not carrying a crate")
	}
	if !canDrop(cur) {
		rc.fail(KindRuntime, "drop", "drop: the cell in front of the rover is blocked")
	}
	rc.step(action.Drop())
	return goja.Undefined()
}

func canDrop(s state.State) bool {
	ahead := s.Ahead()
	return !s.Blocked(ahead) && s.EnemyAt(ahead) < 0
}

// install prepares the global object: builtins, the trace hook and the
// sandbox restrictions.
func (rc *runContext) install() error {
	g := rc.vm.GlobalObject()
	for _, b := range catalog {
		if err := g.Set(b.name, rc.builtinFunc(b)); err != nil {
			return fmt.Errorf("script: register %s: %w", b.name, err)
		}
	}
	hooks := map[string]func(goja.FunctionCall) goja.Value{
		traceFunc: rc.trace,
		atFunc:    rc.mark,
		capFunc:   rc.capped,
		ownFunc:   rc.own,
	}
	for name, fn := range hooks {
		if err := g.Set(name, fn); err != nil {
			return fmt.Errorf("script: register %s: %w", name, err)
		}
	}
	if err := rc.sandbox(); err != nil {
		return fmt.Errorf("script: sandbox: %w", err)
	}
	return nil
}

func (rc *runContext) sandbox() error {
	vm := rc.vm
	fnProto := vm.Get("Function").ToObject(vm).Get("prototype").ToObject(vm)
	if err := fnProto.Delete("constructor"); err != nil {
		return err
	}
	for _, name := range []string{"eval", "Function"} {
		if err := vm.GlobalObject().Delete(name); err != nil {
			return err
		}
	}

	return rc.guardContainers()
}
