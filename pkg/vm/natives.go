package vm

import (
	"fmt"
	"os"
	"time"

	"github.com/kristofer/ember/pkg/value"
)

// defineNatives installs the standard native library: clock() for timing
// scripts and benchmarks, readFile(path) for the small amount of host
// interaction a script needs. Arity is not statically checked at the call
// site — each native validates its own arguments.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
	vm.defineNative("readFile", vm.nativeReadFile)
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	native := vm.heap.AllocateNative(name, fn)
	nameStr := vm.heap.AllocateString(name)
	vm.globals.Set(nameStr, value.FromObj(native))
}

func nativeClock(args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func (vm *VM) nativeReadFile(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !isString(args[0]) {
		return value.Nil, fmt.Errorf("readFile() expects a single string argument.")
	}
	path := args[0].Obj.(*value.ObjString).Chars
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Nil, fmt.Errorf("could not read file '%s'.", path)
	}
	return value.FromObj(vm.heap.AllocateString(string(data))), nil
}
