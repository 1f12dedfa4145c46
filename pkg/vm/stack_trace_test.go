package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
)

// TestStackTraceOnError checks that a runtime error three frames deep
// surfaces every frame, innermost first when read top-to-bottom.
func TestStackTraceOnError(t *testing.T) {
	_, err := run(t, `
	fun third() {
		return "x" - 1;
	}
	fun second() {
		return third();
	}
	fun first() {
		return second();
	}
	first();
	`)
	if err == nil {
		t.Fatal("expected a runtime type error")
	}

	runtimeErr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}

	if len(runtimeErr.StackTrace) != 4 {
		t.Fatalf("expected 4 frames (third, second, first, script), got %d: %v",
			len(runtimeErr.StackTrace), runtimeErr.StackTrace)
	}

	msg := runtimeErr.Error()
	for _, name := range []string{"third()", "second()", "first()", "script"} {
		if !strings.Contains(msg, name) {
			t.Errorf("expected stack trace to mention %q, got: %s", name, msg)
		}
	}
}

func TestNoStackTraceOnSuccess(t *testing.T) {
	out, err := run(t, `
	var x = 10;
	var y = 2;
	print x / y;
	`)
	if err != nil {
		t.Fatalf("expected successful execution, got error: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Errorf("expected 5, got %q", out)
	}
}

// TestRuntimeErrorResetsStackForREPLContinuation checks that after a
// runtime error the VM's stack and frames are cleared so a host REPL can
// keep accepting input.
func TestRuntimeErrorResetsStackForREPLContinuation(t *testing.T) {
	h := heap.New()
	var out bytes.Buffer
	machine := New(h, &out)

	fn, errs := compiler.Compile(`print "x" - 1;`, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := machine.Interpret(fn); err == nil {
		t.Fatal("expected a runtime error")
	}
	if strings.TrimSpace(out.String()) != "" {
		t.Fatalf("expected no print output before the error, got %q", out.String())
	}
	if machine.stackTop != 0 || len(machine.frames) != 0 {
		t.Fatalf("expected cleared stack and frames, got stackTop=%d frames=%d", machine.stackTop, len(machine.frames))
	}

	fn, errs = compiler.Compile(`print 1;`, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("expected the next input to run after the error, got: %v", err)
	}
	if strings.TrimSpace(out.String()) != "1" {
		t.Fatalf("expected 1, got %q", out.String())
	}
}
