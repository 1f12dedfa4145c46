// Package compiler implements ember's single-pass Pratt-style compiler:
// parsing and bytecode emission happen in the same pass, with
// no intermediate AST. The compile-time function-state stack resolves
// local variable slots, performs upvalue capture across nested functions,
// and patches forward jumps directly as tokens are consumed.
package compiler

import (
	"fmt"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/heap"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/value"
)

// maxLocals, maxUpvalues, maxParams, maxArgs are ember's hard compile-time
// limits, all tied to the single-byte operand each addresses.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxParams   = 255
	maxArgs     = 255
)

// funcKind distinguishes the four shapes of compile-time function context:
// it governs what slot 0 means and whether bare `return` is legal.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

// local is one entry in a function compiler's local-variable array: its
// name, the scope depth it was declared at (-1 while its initializer is
// still being compiled), and whether any nested function has captured it
// as an upvalue.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records one upvalue slot in a function compiler: either a
// direct capture of a local slot in the immediately enclosing function
// (isLocal true, index = that local's slot) or a chained capture of an
// upvalue already resolved in the enclosing function (isLocal false,
// index = that upvalue's index there).
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is one compiler frame: per-function compile state, chained via
// enclosing to form a stack mirroring the nesting of function
// declarations.
type funcState struct {
	enclosing *funcState
	function  *value.ObjFunction
	kind      funcKind

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classState is one entry in the parallel stack of class compile states,
// tracking only whether the class currently being compiled has a
// superclass (needed to validate `super` usage).
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler holds all single-pass compile state: the token stream, the
// function-compiler stack, the class-compiler stack, and error/panic-mode
// bookkeeping.
type Compiler struct {
	lex *lexer.Lexer
	h   *heap.Heap

	previous lexer.Token
	current  lexer.Token

	fn    *funcState
	class *classState

	errors    []string
	panicMode bool
}

// Compile compiles source into a top-level script function. On a compile
// error it returns (nil, errors): no function is produced if anything
// failed to parse.
func Compile(source string, h *heap.Heap) (*value.ObjFunction, []string) {
	c := &Compiler{lex: lexer.New(source), h: h}
	h.PushRoots(c)
	defer h.PopRoots()

	c.fn = &funcState{function: h.AllocateFunction(), kind: kindScript}
	c.fn.locals = append(c.fn.locals, local{name: "", depth: 0})

	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return fn, nil
}

// WalkRoots implements heap.RootProvider: every in-progress function
// object on the compiler's frame stack is a GC root for the duration of
// compilation.
func (c *Compiler) WalkRoots(h *heap.Heap) {
	for fs := c.fn; fs != nil; fs = fs.enclosing {
		h.MarkObject(fs.function)
	}
}

func (c *Compiler) currentChunk() *value.Chunk { return c.fn.function.Chunk }

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind lexer.TokenType) bool { return c.current.Type == kind }

func (c *Compiler) match(kind lexer.TokenType) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind lexer.TokenType, msg string) {
	if c.current.Type == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting / synchronization ---

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	where := "at '" + tok.Lexeme + "'"
	if tok.Type == lexer.TokenEOF {
		where = "at end"
	} else if tok.Type == lexer.TokenError {
		where = ""
	}

	if where == "" {
		c.errors = append(c.errors, fmt.Sprintf("[line %d] Error: %s", tok.Line, msg))
	} else {
		c.errors = append(c.errors, fmt.Sprintf("[line %d] Error %s: %s", tok.Line, where, msg))
	}
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokenEOF {
		if c.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- bytecode emission helpers ---

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op byte) { c.emitByte(op) }

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx := c.makeConstant(v)
	c.emitBytes(byte(bytecode.OpConstant), idx)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

// emitJump writes a jump opcode with a two-byte placeholder operand and
// returns the offset of the first placeholder byte, for patchJump to fill
// in later.
func (c *Compiler) emitJump(op byte) int {
	c.emitByte(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(bytecode.OpLoop))
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitReturn() {
	if c.fn.kind == kindInitializer {
		c.emitBytes(byte(bytecode.OpGetLocal), 0)
	} else {
		c.emitByte(byte(bytecode.OpNil))
	}
	c.emitByte(byte(bytecode.OpReturn))
}

// endCompiler emits the implicit trailing return and pops this function's
// compiler frame, returning the finished function object.
func (c *Compiler) endCompiler() *value.ObjFunction {
	c.emitReturn()
	fn := c.fn.function
	c.fn = c.fn.enclosing
	return fn
}
