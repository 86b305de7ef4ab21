package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// ownerKey identifies a member write in progress: the store site and the
// call depth it runs at.
type ownerKey struct {
	site, depth int
}

// own remembers obj as written by the store at a site, to be checked once
// the write is done.
func (rc *runContext) own(call goja.FunctionCall) goja.Value {
	v := call.Argument(0)
	if rc.speculating || rc.halted {
		return v
	}
	if obj, ok := v.(*goja.Object); ok {
		key := ownerKey{site: int(call.Argument(1).ToInteger()), depth: rc.depth()}
		rc.owners[key] = append(rc.owners[key], obj)
	}
	return v
}

// capped checks a value the script stores, passes on or returns. With a
// site it also checks the objects that store wrote into.
func (rc *runContext) capped(call goja.FunctionCall) goja.Value {
	v := call.Argument(0)
	if rc.speculating || rc.halted {
		return v
	}
	if len(call.Arguments) > 1 {
		key := ownerKey{site: int(call.Argument(1).ToInteger()), depth: rc.depth()}
		objs := rc.owners[key]
		delete(rc.owners, key)
		for _, obj := range objs {
			if !rc.checkSize(obj) {
				return v
			}
		}
	}
	rc.checkSize(v)
	return v
}

func (rc *runContext) checkSize(v goja.Value) bool {
	if msg := rc.oversize(v); msg != "" {
		rc.exceed("%s", msg)
		return false
	}
	return true
}

// oversize describes how v breaks the size limits, or returns "".
func (rc *runContext) oversize(v goja.Value) string {
	switch v := v.(type) {
	case goja.String:
		if v.Length() > rc.limits.MaxStringSize {
			return fmt.Sprintf("string longer than %d characters", rc.limits.MaxStringSize)
		}
	case *goja.Object:
		switch v.ClassName() {
		case "Array":
			if v.Get("length").ToInteger() > int64(rc.limits.MaxArraySize) {
				return fmt.Sprintf("array longer than %d elements", rc.limits.MaxArraySize)
			}
		case "Map", "Set":
			if v.Get("size").ToInteger() > int64(rc.limits.MaxMapSize) {
				return fmt.Sprintf("%s with more than %d entries", v.ClassName(), rc.limits.MaxMapSize)
			}
		case "Object":
			if len(v.Keys()) > rc.limits.MaxMapSize {
				return fmt.Sprintf("object with more than %d keys", rc.limits.MaxMapSize)
			}
		}
	}
	return ""
}

// exceed ends the run with a limit error. It cannot be caught, so a script
// cannot go on growing a value that is already too large.
func (rc *runContext) exceed(format string, args ...any) {
	rc.leave(rc.depth())
	rc.interrupt(newError(KindLimit, rc.errorPos(), format, args...))
}

// arrayGrowth is how many elements each guarded Array.prototype method may
// add to its receiver.
var arrayGrowth = map[string]func(goja.FunctionCall) int64{
	"push":    func(call goja.FunctionCall) int64 { return int64(len(call.Arguments)) },
	"unshift": func(call goja.FunctionCall) int64 { return int64(len(call.Arguments)) },
	"splice":  func(call goja.FunctionCall) int64 { return int64(max(len(call.Arguments)-2, 0)) },

	"concat": nil, "copyWithin": nil, "every": nil, "fill": nil, "filter": nil,
	"find": nil, "findIndex": nil, "findLast": nil, "findLastIndex": nil,
	"flat": nil, "flatMap": nil, "forEach": nil, "includes": nil, "indexOf": nil,
	"join": nil, "lastIndexOf": nil, "map": nil, "reduce": nil, "reduceRight": nil,
	"reverse": nil, "slice": nil, "some": nil, "sort": nil,
}

// guardContainers wraps the builtins that build strings and containers
// by count, so oversized values are refused before they are allocated or
// reported as soon as they exist.
func (rc *runContext) guardContainers() error {
	vm := rc.vm
	maxStr, maxArr := int64(rc.limits.MaxStringSize), int64(rc.limits.MaxArraySize)
	global := func(name string) *goja.Object {
		return vm.Get(name).ToObject(vm)
	}
	proto := func(name string) *goja.Object {
		return global(name).Get("prototype").ToObject(vm)
	}
	tooLongString := func() bool {
		rc.exceed("string longer than %d characters", maxStr)
		return false
	}
	tooLongArray := func() bool {
		rc.exceed("array longer than %d elements", maxArr)
		return false
	}

	strProto := proto("String")
	if err := rc.wrapMethod(strProto, "repeat", func(call goja.FunctionCall) bool {
		n := call.Argument(0).ToInteger()
		size := int64(len(call.This.String()))
		if n <= 0 || size == 0 || n <= maxStr/size {
			return true
		}
		return tooLongString()
	}, nil); err != nil {
		return err
	}
	for _, method := range []string{"padStart", "padEnd"} {
		if err := rc.wrapMethod(strProto, method, func(call goja.FunctionCall) bool {
			return call.Argument(0).ToInteger() <= maxStr || tooLongString()
		}, nil); err != nil {
			return err
		}
	}

	arrProto := proto("Array")
	for method, growth := range arrayGrowth {
		before := func(call goja.FunctionCall) bool {
			length := call.This.ToObject(vm).Get("length").ToInteger()
			if growth != nil {
				length += growth(call)
			}
			return length <= maxArr || tooLongArray()
		}
		if err := rc.wrapMethod(arrProto, method, before, rc.checkResult); err != nil {
			return err
		}
	}
	if err := rc.wrapMethod(global("Array"), "from", func(call goja.FunctionCall) bool {
		src, ok := call.Argument(0).(*goja.Object)
		if !ok {
			return true
		}
		length := src.Get("length")
		return length == nil || goja.IsUndefined(length) || length.ToInteger() <= maxArr || tooLongArray()
	}, rc.checkResult); err != nil {
		return err
	}

	checkThis := func(call goja.FunctionCall, _ goja.Value) {
		rc.checkSize(call.This)
	}
	checkTarget := func(call goja.FunctionCall, _ goja.Value) {
		rc.checkSize(call.Argument(0))
	}
	wraps := []struct {
		obj    *goja.Object
		method string
		after  func(goja.FunctionCall, goja.Value)
	}{
		{proto("Map"), "set", checkThis},
		{proto("Set"), "add", checkThis},
		{global("Object"), "assign", checkTarget},
		{global("Object"), "defineProperty", checkTarget},
		{global("Object"), "defineProperties", checkTarget},
		{global("Object"), "fromEntries", rc.checkResult},
		{global("Reflect"), "set", checkTarget},
		{global("Reflect"), "defineProperty", checkTarget},
	}
	for _, w := range wraps {
		if err := rc.wrapMethod(w.obj, w.method, nil, w.after); err != nil {
			return err
		}
	}
	return nil
}

func (rc *runContext) checkResult(_ goja.FunctionCall, v goja.Value) {
	rc.checkSize(v)
}

// wrapMethod replaces obj[method] with a version that asks before whether
// the call may go ahead and hands the result to after. A method the
// interpreter does not provide is left alone.
func (rc *runContext) wrapMethod(obj *goja.Object, method string, before func(goja.FunctionCall) bool, after func(goja.FunctionCall, goja.Value)) error {
	v := obj.Get(method)
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	orig, ok := goja.AssertFunction(v)
	if !ok {
		return fmt.Errorf("%s is not a function", method)
	}
	return obj.Set(method, func(call goja.FunctionCall) goja.Value {
		if rc.halted {
			return goja.Undefined()
		}
		if before != nil && !before(call) {
			return goja.Undefined()
		}
		res, err := orig(call.This, call.Arguments...)
		if err != nil {
			rc.rethrow(err)
		}
		if after != nil && !rc.halted {
			after(call, res)
		}
		return res
	})
}

// rethrow raises an error from a wrapped builtin in the calling script.
// Errors that end the run stay uncatchable.
func (rc *runContext) rethrow(err error) {
	var (
		interrupted *goja.InterruptedError
		overflow    *goja.StackOverflowError
		ex          *goja.Exception
	)
	switch {
	case errors.As(err, &interrupted), errors.As(err, &overflow):
		panic(err)
	case errors.As(err, &ex):
		panic(ex)
	}
	panic(rc.vm.NewGoError(err))
}
