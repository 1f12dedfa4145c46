package vm

import (
	"fmt"

	"github.com/kristofer/ember/pkg/value"
)

// Reset clears the stack and call-frame state, used between REPL lines
// after a runtime error so the session can keep going.
func (vm *VM) Reset() { vm.resetStack() }

// runtimeError builds a RuntimeError carrying the current call stack, then
// resets the VM so a host REPL can keep accepting input.
func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	trace := make([]StackFrame, len(vm.frames))
	for i, fr := range vm.frames {
		line := 0
		chunk := fr.closure.Function.Chunk
		if fr.ip-1 >= 0 && fr.ip-1 < len(chunk.Lines) {
			line = chunk.Lines[fr.ip-1]
		}
		trace[i] = StackFrame{Name: fr.closure.Name(), SourceLine: line}
	}
	vm.resetStack()
	return newRuntimeError(msg, trace)
}

func (vm *VM) binaryArith(op func(a, b float64) float64) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	vm.push(value.Number(op(a, b)))
	return nil
}

func (vm *VM) binaryCompare(op func(a, b float64) bool) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	vm.push(value.Bool(op(a, b)))
	return nil
}

// add implements OP_ADD: number+number adds, string+string concatenates
// (allocating — and thereby interning — a fresh string each time), any
// other combination is a type error.
func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case isString(a) && isString(b):
		vm.pop()
		vm.pop()
		as, bs := a.Obj.(*value.ObjString), b.Obj.(*value.ObjString)
		vm.push(value.FromObj(vm.heap.AllocateString(as.Chars + bs.Chars)))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func isString(v value.Value) bool {
	if !v.IsObj() {
		return false
	}
	_, ok := v.Obj.(*value.ObjString)
	return ok
}

func (vm *VM) getProperty(f *callFrame) error {
	instVal := vm.peek(0)
	inst, ok := instVal.Obj.(*value.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	name := vm.readString(f)

	if v, ok := inst.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return nil
	}
	bound, ok := vm.bindMethod(inst.Class, name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}

func (vm *VM) setProperty(f *callFrame) error {
	instVal := vm.peek(1)
	inst, ok := instVal.Obj.(*value.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}
	name := vm.readString(f)
	inst.Fields.Set(name, vm.peek(0))

	v := vm.pop()
	vm.pop()
	vm.push(v)
	return nil
}

func (vm *VM) bindMethod(class *value.ObjClass, name *value.ObjString) (*value.ObjBoundMethod, bool) {
	method, ok := class.Methods.Get(name)
	if !ok {
		return nil, false
	}
	return vm.heap.AllocateBoundMethod(vm.peek(0), method), true
}

func (vm *VM) defineMethod(name *value.ObjString) {
	method := vm.peek(0).Obj.(*value.ObjClosure)
	class := vm.peek(1).Obj.(*value.ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}

// callValue dispatches a call by the callee's runtime type: a closure runs
// normally, a class instantiates (optionally running
// init), a bound method rebinds `this` and calls its underlying closure,
// and a native runs synchronously on the host stack.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}

	switch callee := callee.Obj.(type) {
	case *value.ObjClosure:
		return vm.call(callee, argCount)
	case *value.ObjNative:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := callee.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil
	case *value.ObjClass:
		inst := vm.heap.AllocateInstance(callee)
		vm.stack[vm.stackTop-argCount-1] = value.FromObj(inst)
		if initializer, ok := callee.Methods.Get(vm.initString); ok {
			return vm.call(initializer, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case *value.ObjBoundMethod:
		vm.stack[vm.stackTop-argCount-1] = callee.Receiver
		return vm.call(callee.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure: closure,
		ip:      0,
		base:    vm.stackTop - argCount - 1,
	})
	return nil
}

func (vm *VM) invoke(name *value.ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	inst, ok := receiver.Obj.(*value.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method, argCount)
}

// slotIndex returns i such that &vm.stack[i] == loc, used by the
// open-upvalue list to compare stack positions without resorting to raw
// pointer arithmetic.
func (vm *VM) slotIndex(loc *value.Value) int {
	for i := 0; i < vm.stackTop; i++ {
		if &vm.stack[i] == loc {
			return i
		}
	}
	return -1
}

// captureUpvalue returns the open upvalue already pointing at stack slot
// idx, or creates and links a new one in descending-slot order.
func (vm *VM) captureUpvalue(idx int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && vm.slotIndex(uv.Location) > idx {
		prev = uv
		uv = uv.NextOpen
	}
	if uv != nil && vm.slotIndex(uv.Location) == idx {
		return uv
	}

	created := vm.heap.AllocateUpvalue(&vm.stack[idx])
	created.NextOpen = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack slot fromIdx,
// copying each one's current value into its own Closed cell so it
// survives the frame that declared it going away.
func (vm *VM) closeUpvalues(fromIdx int) {
	for vm.openUpvalues != nil {
		idx := vm.slotIndex(vm.openUpvalues.Location)
		if idx < fromIdx {
			break
		}
		uv := vm.openUpvalues
		uv.Closed = vm.stack[idx]
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.NextOpen
		uv.NextOpen = nil
	}
}
