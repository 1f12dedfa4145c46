// Command ember runs the ember scripting language: a REPL when given no
// arguments, or a single source file when given one.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/kristofer/ember/pkg/vm"
)

// Exit codes, chosen to match the conventions of other Unix interpreters:
// 64 bad usage, 65 bad input (compile error), 70 internal/runtime error,
// 74 I/O error.
const (
	exitOK         = 0
	exitBadUsage   = 64
	exitCompileErr = 65
	exitRuntimeErr = 70
	exitCannotRead = 74
)

func main() {
	trace := flag.Bool("trace", false, "print each instruction before it executes")
	stressGC := flag.Bool("stress-gc", false, "collect on every allocation")
	heapLog := flag.Bool("heap-log", false, "log every allocation and GC phase to stderr")
	flag.Parse()

	args := flag.Args()
	switch len(args) {
	case 0:
		runREPL(*trace, *stressGC, *heapLog)
	case 1:
		runFile(args[0], *trace, *stressGC, *heapLog)
	default:
		fmt.Fprintln(os.Stderr, "usage: ember [-trace] [-stress-gc] [-heap-log] [path]")
		os.Exit(exitBadUsage)
	}
}

func newMachine(trace, stressGC, heapLog bool, stdout io.Writer) (*heap.Heap, *vm.VM) {
	h := heap.New()
	h.StressGC = stressGC
	if heapLog {
		h.LogWriter = os.Stderr
	}
	machine := vm.New(h, stdout)
	machine.Trace = trace
	return h, machine
}

// runFile reads and interprets a single source file.
func runFile(path string, trace, stressGC, heapLog bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(exitCannotRead)
	}

	h, machine := newMachine(trace, stressGC, heapLog, os.Stdout)

	fn, errs := compiler.Compile(string(data), h)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(exitCompileErr)
	}

	if err := machine.Interpret(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeErr)
	}

	os.Exit(exitOK)
}

// runREPL reads one line at a time, compiling and interpreting each
// independently against a single persistent VM: globals and heap state
// carry over between lines, but a parse/compile error on one line never
// corrupts the next.
func runREPL(trace, stressGC, heapLog bool) {
	fmt.Println("ember REPL — Ctrl-D to exit")

	h, machine := newMachine(trace, stressGC, heapLog, os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		fn, errs := compiler.Compile(line, h)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			continue
		}

		if err := machine.Interpret(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
			machine.Reset()
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(exitBadUsage)
	}
}
