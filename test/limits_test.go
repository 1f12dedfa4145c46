package test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/stretchr/testify/require"
)

// buildParamList returns n comma-separated distinct parameter names.
func buildParamList(n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = "p" + strconv.Itoa(i)
	}
	return strings.Join(names, ", ")
}

func TestLimits_255ParametersCompiles(t *testing.T) {
	h := heap.New()
	source := "fun f(" + buildParamList(255) + ") { return 0; }"
	_, errs := compiler.Compile(source, h)
	require.Empty(t, errs)
}

func TestLimits_256ParametersIsCompileError(t *testing.T) {
	h := heap.New()
	source := "fun f(" + buildParamList(256) + ") { return 0; }"
	_, errs := compiler.Compile(source, h)
	require.NotEmpty(t, errs)
}

func TestLimits_TopLevelReturnIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile("return 1;", h)
	require.NotEmpty(t, errs)
}

func TestLimits_ThisOutsideClassIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile("print this;", h)
	require.NotEmpty(t, errs)
}

func TestLimits_SuperOutsideClassIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile("print super.foo;", h)
	require.NotEmpty(t, errs)
}

func TestLimits_SuperWithoutSuperclassIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile(`class C { m() { super.m(); } }`, h)
	require.NotEmpty(t, errs)
}

func TestLimits_DuplicateLocalInSameScopeIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile(`{ var x = 1; var x = 2; }`, h)
	require.NotEmpty(t, errs)
}

func TestLimits_ReadLocalInOwnInitializerIsCompileError(t *testing.T) {
	h := heap.New()
	_, errs := compiler.Compile(`{ var x = x; }`, h)
	require.NotEmpty(t, errs)
}

// buildJumpFiller returns a block body of expression statements whose
// compiled length is exactly n bytes: one "0;" (3 bytes, to cover an odd
// remainder) followed by enough "nil;" statements (2 bytes each) to reach
// n. n must differ from 0/1/3 by an even amount for the filler to land
// exactly; the two boundary tests below are built to satisfy that.
func buildJumpFiller(n int) string {
	var b strings.Builder
	if n%2 != 0 {
		b.WriteString("0;")
		n -= 3
	}
	for ; n > 0; n -= 2 {
		b.WriteString("nil;")
	}
	return b.String()
}

// TestLimits_MaxJumpCompiles forces an if-statement's conditional jump to
// span exactly 65535 bytes — the largest offset a two-byte jump operand can
// encode — and checks it still compiles. The jump covers the POP after the
// condition (1 byte), the 65531-byte then-branch, and the 3-byte jump over
// the else-branch.
func TestLimits_MaxJumpCompiles(t *testing.T) {
	h := heap.New()
	source := "fun f() { if (true) {" + buildJumpFiller(65531) + "} }"
	_, errs := compiler.Compile(source, h)
	require.Empty(t, errs, "expected a 65535-byte jump to compile, got %v", errs)
}

// TestLimits_JumpOneByteOverMaxIsCompileError forces the same then-branch
// one byte longer, pushing the jump offset to 65536 — one past what a
// two-byte operand can address — and checks it is rejected.
func TestLimits_JumpOneByteOverMaxIsCompileError(t *testing.T) {
	h := heap.New()
	source := "fun f() { if (true) {" + buildJumpFiller(65532) + "} }"
	_, errs := compiler.Compile(source, h)
	require.NotEmpty(t, errs, "expected a 65536-byte jump to be a compile error")
}

func TestLimits_ErrorRecoverySynchronizesAfterBadToken(t *testing.T) {
	h := heap.New()
	// The first statement is malformed; synchronize() should resume at the
	// next statement boundary rather than cascading into a pile of
	// unrelated errors for the well-formed second statement.
	_, errs := compiler.Compile(`var ; var ok = 1;`, h)
	require.NotEmpty(t, errs)
	require.Less(t, len(errs), 4, "panic-mode recovery should keep error count small, got %v", errs)
}
