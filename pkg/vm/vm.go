// Package vm implements ember's bytecode interpreter: a stack machine with
// call frames, reading and executing the byte stream a Chunk holds.
package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/kristofer/ember/pkg/table"
	"github.com/kristofer/ember/pkg/value"
)

// framesMax bounds call-frame nesting; stackMax is sized so the deepest
// legal call chain, each frame using up to 256 local slots, always fits.
const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// callFrame is one active call: the closure being executed, its
// instruction pointer, and the base stack slot its locals start at.
type callFrame struct {
	closure *value.ObjClosure
	ip      int
	base    int
}

// VM is ember's interpreter: a fixed-size value stack, a call-frame stack,
// the global-variable table, the open-upvalue list, and the heap it
// allocates through. One VM runs one program; it registers itself as a
// permanent GC root for its entire lifetime.
type VM struct {
	stack    [stackMax]value.Value
	stackTop int

	frames       []callFrame
	globals      *table.Table[*value.ObjString, value.Value]
	openUpvalues *value.ObjUpvalue

	heap       *heap.Heap
	initString *value.ObjString

	stdout io.Writer
	Trace  bool
}

// New builds a VM backed by h, writing `print` output to stdout, and
// registers the standard native library.
func New(h *heap.Heap, stdout io.Writer) *VM {
	vm := &VM{
		globals: table.New[*value.ObjString, value.Value](16),
		heap:    h,
		stdout:  stdout,
	}
	vm.initString = h.AllocateString("init")
	h.PushRoots(vm)
	vm.defineNatives()
	return vm
}

// WalkRoots implements heap.RootProvider: the value stack up to stackTop,
// every call frame's closure, the globals table, the open-upvalue chain,
// and the cached "init" string are all GC roots for the VM's entire
// lifetime.
func (vm *VM) WalkRoots(h *heap.Heap) {
	for i := 0; i < vm.stackTop; i++ {
		h.MarkValue(vm.stack[i])
	}
	for _, f := range vm.frames {
		h.MarkObject(f.closure)
	}
	vm.globals.Each(func(name *value.ObjString, v value.Value) bool {
		h.MarkObject(name)
		h.MarkValue(v)
		return true
	})
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		h.MarkObject(uv)
	}
	h.MarkObject(vm.initString)
}

// --- stack primitives ---

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

// Interpret runs fn (the top-level script function the compiler produced)
// to completion, wrapping it in a closure the way every callable value is
// represented at runtime.
func (vm *VM) Interpret(fn *value.ObjFunction) error {
	vm.push(value.FromObj(fn))
	closure := vm.heap.AllocateClosure(fn)
	vm.pop()
	vm.push(value.FromObj(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) frame() *callFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) readByte(f *callFrame) byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort(f *callFrame) uint16 {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(f *callFrame) value.Value {
	return f.closure.Function.Chunk.Constants[vm.readByte(f)]
}

func (vm *VM) readString(f *callFrame) *value.ObjString {
	return vm.readConstant(f).Obj.(*value.ObjString)
}

// run is the bytecode dispatch loop: decode one opcode from the current
// frame, execute it against the value stack, repeat until an OP_RETURN
// unwinds the outermost frame or a runtime error is raised.
func (vm *VM) run() error {
	f := vm.frame()

	for {
		if vm.Trace {
			var b strings.Builder
			bytecode.DisassembleInstruction(&b, f.closure.Function.Chunk, f.ip)
			fmt.Fprint(vm.stdout, b.String())
		}

		op := bytecode.Opcode(vm.readByte(f))
		switch op {
		case bytecode.OpConstant:
			vm.push(vm.readConstant(f))

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := vm.readByte(f)
			vm.push(vm.stack[f.base+int(slot)])
		case bytecode.OpSetLocal:
			slot := vm.readByte(f)
			vm.stack[f.base+int(slot)] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := vm.readString(f)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := vm.readString(f)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case bytecode.OpSetGlobal:
			name := vm.readString(f)
			if !vm.globals.Has(name) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Set(name, vm.peek(0))

		case bytecode.OpGetUpvalue:
			slot := vm.readByte(f)
			vm.push(*f.closure.Upvalues[slot].Location)
		case bytecode.OpSetUpvalue:
			slot := vm.readByte(f)
			*f.closure.Upvalues[slot].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			if err := vm.getProperty(f); err != nil {
				return err
			}
		case bytecode.OpSetProperty:
			if err := vm.setProperty(f); err != nil {
				return err
			}
		case bytecode.OpGetSuper:
			name := vm.readString(f)
			superclass := vm.pop().Obj.(*value.ObjClass)
			bound, ok := vm.bindMethod(superclass, name)
			if !ok {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}
			vm.pop()
			vm.push(value.FromObj(bound))

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			if err := vm.binaryCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.binaryCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.binaryArith(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryArith(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryArith(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.OpJump:
			offset := vm.readShort(f)
			f.ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := vm.readShort(f)
			if vm.peek(0).IsFalsey() {
				f.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := vm.readShort(f)
			f.ip -= int(offset)

		case bytecode.OpCall:
			argCount := int(vm.readByte(f))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			f = vm.frame()
		case bytecode.OpInvoke:
			method := vm.readString(f)
			argCount := int(vm.readByte(f))
			if err := vm.invoke(method, argCount); err != nil {
				return err
			}
			f = vm.frame()
		case bytecode.OpSuperInvoke:
			method := vm.readString(f)
			argCount := int(vm.readByte(f))
			superclass := vm.pop().Obj.(*value.ObjClass)
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			f = vm.frame()

		case bytecode.OpClosure:
			fn := vm.readConstant(f).Obj.(*value.ObjFunction)
			closure := vm.heap.AllocateClosure(fn)
			vm.push(value.FromObj(closure))
			for i := range closure.Upvalues {
				isLocal := vm.readByte(f)
				index := int(vm.readByte(f))
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(f.base + index)
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(f.base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = f.base
			vm.push(result)
			f = vm.frame()

		case bytecode.OpClass:
			name := vm.readString(f)
			vm.push(value.FromObj(vm.heap.AllocateClass(name)))
		case bytecode.OpInherit:
			superVal := vm.peek(1)
			superclass, ok := superVal.Obj.(*value.ObjClass)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).Obj.(*value.ObjClass)
			superclass.Methods.CopyInto(subclass.Methods)
			vm.pop()
		case bytecode.OpMethod:
			vm.defineMethod(vm.readString(f))

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}
