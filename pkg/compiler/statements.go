package compiler

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/value"
)

// declaration parses one top-level or block-level declaration, recovering
// to the next statement boundary on error via panic-mode synchronization.
func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokenClass):
		c.classDeclaration()
	case c.match(lexer.TokenFun):
		c.funDeclaration()
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenReturn):
		c.returnStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitByte(byte(bytecode.OpPrint))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitByte(byte(bytecode.OpPop))
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitByte(byte(bytecode.OpNil))
	}
	c.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// ifStatement emits a conditional jump over the then-branch and an
// unconditional jump from the end of the then-branch over the else-branch.
// The second jump is emitted even when there is no else clause, since it
// still has to skip the condition's POP on the false path. Both targets are
// patched once the full statement has been parsed.
func (c *Compiler) ifStatement() {
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.statement()

	elseJump := c.emitJump(byte(bytecode.OpJump))
	c.patchJump(thenJump)
	c.emitByte(byte(bytecode.OpPop))

	if c.match(lexer.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(bytecode.OpPop))
}

// forStatement desugars to a while loop: the initializer runs
// once in its own scope, the condition gates an exit jump, and the
// increment clause — parsed where written but compiled after the body —
// is spliced in via a small jump dance around it.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(lexer.TokenSemicolon):
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(lexer.TokenSemicolon) {
		c.expression()
		c.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(byte(bytecode.OpJumpIfFalse))
		c.emitByte(byte(bytecode.OpPop))
	}

	if !c.match(lexer.TokenRightParen) {
		bodyJump := c.emitJump(byte(bytecode.OpJump))
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitByte(byte(bytecode.OpPop))
		c.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(byte(bytecode.OpPop))
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fn.kind == kindScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.fn.kind == kindInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	c.emitByte(byte(bytecode.OpReturn))
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(kindFunction)
	c.defineVariable(global)
}

// function compiles one function body into its own chunk, then emits
// OP_CLOSURE in the enclosing chunk followed by one (isLocal, index) pair
// per captured upvalue.
func (c *Compiler) function(kind funcKind) {
	name := c.previous.Lexeme
	fs := &funcState{enclosing: c.fn, function: c.h.AllocateFunction(), kind: kind}
	// Push the frame before allocating the name, so a collection triggered
	// by that allocation finds the new function through WalkRoots.
	c.fn = fs
	fs.function.Name = c.h.AllocateString(name)
	fs.locals = append(fs.locals, local{name: thisSlotName(kind), depth: 0})

	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !c.check(lexer.TokenRightParen) {
		for {
			c.fn.function.Arity++
			if c.fn.function.Arity > maxParams {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	c.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	upvalues := fs.upvalues
	fn := c.endCompiler()

	c.emitBytes(byte(bytecode.OpClosure), c.makeConstant(value.FromObj(fn)))
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(uv.index)
	}
}

// thisSlotName names slot 0 of every function frame: "this" for methods
// and initializers (so `this` resolves as an ordinary local), empty for
// plain functions and the top-level script.
func thisSlotName(kind funcKind) string {
	if kind == kindMethod || kind == kindInitializer {
		return "this"
	}
	return ""
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	name := c.previous.Lexeme
	constant := c.identifierConstant(name)

	kind := kindMethod
	if name == "init" {
		kind = kindInitializer
	}
	c.function(kind)
	c.emitBytes(byte(bytecode.OpMethod), constant)
}

// classDeclaration implements copy-down single inheritance: OP_INHERIT,
// executed once at class-declaration time, copies the entire
// parent method table into the child, so method lookup at call sites is
// always a single probe of the class's own table — no parent chain is
// walked at runtime.
func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok.Lexeme)
	c.declareVariable(nameTok.Lexeme)

	c.emitBytes(byte(bytecode.OpClass), nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		c.variable(false)
		if identifiersEqual(nameTok.Lexeme, c.previous.Lexeme) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(nameTok.Lexeme, false)
		c.emitByte(byte(bytecode.OpInherit))
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok.Lexeme, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitByte(byte(bytecode.OpPop))

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}
