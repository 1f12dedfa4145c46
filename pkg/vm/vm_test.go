package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	h := heap.New()
	fn, errs := compiler.Compile(source, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	var out bytes.Buffer
	machine := New(h, &out)
	err := machine.Interpret(fn)
	return out.String(), err
}

func TestVM_ArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("expected 7, got %q", out)
	}
}

func TestVM_StringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Fatalf("expected foobar, got %q", out)
	}
}

func TestVM_GlobalsAndLocals(t *testing.T) {
	out, err := run(t, `
	var x = 10;
	{
		var y = 20;
		print x + y;
	}
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "30" {
		t.Fatalf("expected 30, got %q", out)
	}
}

func TestVM_IfElse(t *testing.T) {
	out, err := run(t, `if (1 < 2) { print "yes"; } else { print "no"; }`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("expected yes, got %q", out)
	}
}

func TestVM_WhileLoop(t *testing.T) {
	out, err := run(t, `
	var i = 0;
	while (i < 3) {
		print i;
		i = i + 1;
	}
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "0\n1\n2" {
		t.Fatalf("expected 0 1 2, got %q", out)
	}
}

func TestVM_ForLoop(t *testing.T) {
	out, err := run(t, `
	for (var i = 0; i < 3; i = i + 1) {
		print i;
	}
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "0\n1\n2" {
		t.Fatalf("expected 0 1 2, got %q", out)
	}
}

func TestVM_FunctionCallAndReturn(t *testing.T) {
	out, err := run(t, `
	fun add(a, b) {
		return a + b;
	}
	print add(1, 2);
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("expected 3, got %q", out)
	}
}

// TestVM_ClosureCapturesByReference mirrors the spec's canonical closure
// scenario: a counter closure that keeps incrementing the same captured
// variable across calls, rather than a fresh copy each time.
func TestVM_ClosureCapturesByReference(t *testing.T) {
	out, err := run(t, `
	fun makeCounter() {
		var count = 0;
		fun increment() {
			count = count + 1;
			return count;
		}
		return increment;
	}
	var counter = makeCounter();
	print counter();
	print counter();
	print counter();
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "1\n2\n3" {
		t.Fatalf("expected 1 2 3, got %q", out)
	}
}

// TestVM_UpvalueClosedAcrossReturn checks that an upvalue keeps the
// variable's final value after the declaring frame returns and its stack
// slot is reused by later calls.
func TestVM_UpvalueClosedAcrossReturn(t *testing.T) {
	out, err := run(t, `
	fun outer() {
		var x = "before";
		fun inner() { print x; }
		x = "after";
		return inner;
	}
	var closure = outer();
	closure();
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "after" {
		t.Fatalf("expected after, got %q", out)
	}
}

func TestVM_ClassInitAndMethod(t *testing.T) {
	out, err := run(t, `
	class Point {
		init(x, y) {
			this.x = x;
			this.y = y;
		}
		sum() {
			return this.x + this.y;
		}
	}
	var p = Point(3, 4);
	print p.sum();
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("expected 7, got %q", out)
	}
}

// TestVM_InheritedMethodViaCopyDown checks a subclass with no methods of
// its own still resolves its parent's method, through copy-down
// inheritance rather than a parent-chain walk.
func TestVM_InheritedMethodViaCopyDown(t *testing.T) {
	out, err := run(t, `
	class Animal {
		speak() { print "..."; }
	}
	class Dog < Animal {}
	var d = Dog();
	d.speak();
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "..." {
		t.Fatalf("expected ..., got %q", out)
	}
}

func TestVM_SuperCallsParentMethod(t *testing.T) {
	out, err := run(t, `
	class Animal {
		speak() { print "generic noise"; }
	}
	class Dog < Animal {
		speak() {
			super.speak();
			print "woof";
		}
	}
	Dog().speak();
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "generic noise\nwoof" {
		t.Fatalf("expected two lines, got %q", out)
	}
}

func TestVM_UndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, "print missing;")
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
	if !strings.Contains(err.Error(), "Undefined variable") {
		t.Fatalf("expected undefined-variable message, got %v", err)
	}
}

func TestVM_TypeErrorOnArithmeticWithNonNumber(t *testing.T) {
	_, err := run(t, `print "x" - 1;`)
	if err == nil {
		t.Fatal("expected a runtime error for a type mismatch")
	}
}

func TestVM_CallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, "var x = 1; x();")
	if err == nil {
		t.Fatal("expected a runtime error calling a non-callable value")
	}
}

func TestVM_ZeroIsFalsey(t *testing.T) {
	out, err := run(t, `if (0) { print "truthy"; } else { print "falsey"; }`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "falsey" {
		t.Fatalf("expected falsey, got %q", out)
	}
}

func TestVM_NativeClockReturnsNumber(t *testing.T) {
	out, err := run(t, `
	var t = clock();
	if (t > 0) { print "positive"; }
	`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "positive" {
		t.Fatalf("expected positive, got %q", out)
	}
}
