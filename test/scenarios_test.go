// Package test holds integration tests that run source through the full
// compiler+VM pipeline, covering the scenarios named explicitly in the
// language specification's "testable properties" section.
package test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/kristofer/ember/pkg/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	h := heap.New()
	fn, errs := compiler.Compile(source, h)
	require.Empty(t, errs, "unexpected compile errors")
	var out bytes.Buffer
	machine := vm.New(h, &out)
	return out.String(), machine.Interpret(fn)
}

func requireOutput(t *testing.T, source, want string) {
	t.Helper()
	out, err := run(t, source)
	require.NoError(t, err)
	require.Equal(t, want, strings.TrimSpace(out))
}

func TestScenario_ArithmeticPrecedence(t *testing.T) {
	requireOutput(t, "print 1 + 2 * 3;", "7")
}

func TestScenario_StringConcatAndInterning(t *testing.T) {
	requireOutput(t, `var a = "foo"; var b = "f" + "oo"; print a == b;`, "true")
}

func TestScenario_ClosuresCaptureByReference(t *testing.T) {
	requireOutput(t, `
	fun makeCounter(){ var n = 0; fun inc(){ n = n + 1; return n; } return inc; }
	var c = makeCounter();
	print c();
	print c();
	print c();
	`, "1\n2\n3")
}

func TestScenario_InheritedMethodViaCopyDown(t *testing.T) {
	requireOutput(t, `
	class A { hello(){ print "A"; } }
	class B < A {}
	B().hello();
	`, "A")
}

func TestScenario_InitializerAndThis(t *testing.T) {
	requireOutput(t, `
	class P { init(x){ this.x = x; } get(){ return this.x; } }
	print P(42).get();
	`, "42")
}

func TestScenario_UpvalueClosedAcrossReturn(t *testing.T) {
	requireOutput(t, `
	fun outer(){ var x = "outer"; fun inner(){ print x; } return inner; }
	outer()();
	`, "outer")
}

func TestScenario_ZeroIsFalsy(t *testing.T) {
	requireOutput(t, `if (0) print "a"; else print "b";`, "b")
}

func TestScenario_InvalidAssignmentTarget(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile("a + b = c;", h)
	require.NotEmpty(t, errs)
	require.Condition(t, func() bool {
		for _, e := range errs {
			if strings.Contains(e, "Invalid assignment target") {
				return true
			}
		}
		return false
	}, "expected an Invalid assignment target error, got %v", errs)
}

func TestScenario_VarEqualsItsOwnInitializer(t *testing.T) {
	requireOutput(t, `var x = 1 + 2 * 3; print x == 1 + 2 * 3;`, "true")
}

func TestScenario_DuplicateMethodKeepsLatter(t *testing.T) {
	requireOutput(t, `
	class C {
		greet() { print "first"; }
		greet() { print "second"; }
	}
	C().greet();
	`, "second")
}

func TestScenario_UndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, err := run(t, "print missing;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable")
}

func TestScenario_DefineThenReadGlobalIsFine(t *testing.T) {
	requireOutput(t, "var x = 5; print x;", "5")
}

func TestScenario_AssignUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, "x = 5;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable")
}

func TestScenario_ReturnValueFromInitializerIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile(`class C { init() { return 1; } }`, h)
	require.NotEmpty(t, errs)
}

func TestScenario_BareReturnFromInitializerIsLegal(t *testing.T) {
	requireOutput(t, `
	class C { init() { return; } }
	print C();
	`, "C instance")
}
