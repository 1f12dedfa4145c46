package test

import (
	"bytes"
	"testing"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/kristofer/ember/pkg/vm"
)

// BenchmarkFibonacciRecursive exercises the call/return/arithmetic path
// under deep recursion; fib(n) is a standard bytecode-interpreter
// benchmark.
func BenchmarkFibonacciRecursive(b *testing.B) {
	const source = `
	fun fib(n) {
		if (n < 2) return n;
		return fib(n - 1) + fib(n - 2);
	}
	fib(20);
	`

	for i := 0; i < b.N; i++ {
		h := heap.New()
		fn, errs := compiler.Compile(source, h)
		if len(errs) > 0 {
			b.Fatalf("unexpected compile errors: %v", errs)
		}
		var out bytes.Buffer
		machine := vm.New(h, &out)
		if err := machine.Interpret(fn); err != nil {
			b.Fatalf("unexpected runtime error: %v", err)
		}
	}
}
