package compiler

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/value"
)

// identifierConstant adds name as a string constant (used for global
// variable names, property names, and method names, all looked up by
// name at runtime rather than by slot).
func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.FromObj(c.h.AllocateString(name)))
}

func identifiersEqual(a, b string) bool { return a == b }

func (c *Compiler) beginScope() { c.fn.scopeDepth++ }

// endScope pops every local declared in the scope just exited. A local
// that was captured by a nested closure is closed on the value stack
// (OP_CLOSE_UPVALUE) rather than merely popped (OP_POP), so the upvalue
// keeps seeing its final value after the frame is gone.
func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	for len(c.fn.locals) > 0 && c.fn.locals[len(c.fn.locals)-1].depth > c.fn.scopeDepth {
		last := c.fn.locals[len(c.fn.locals)-1]
		if last.isCaptured {
			c.emitByte(byte(bytecode.OpCloseUpvalue))
		} else {
			c.emitByte(byte(bytecode.OpPop))
		}
		c.fn.locals = c.fn.locals[:len(c.fn.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.fn.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: -1})
}

// declareVariable registers the variable named by c.previous as a new
// local in the current scope (a no-op at global scope, where variables
// are resolved by name at runtime instead of by slot).
func (c *Compiler) declareVariable(name string) {
	if c.fn.scopeDepth == 0 {
		return
	}
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth != -1 && l.depth < c.fn.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// parseVariable consumes an identifier token, declares it, and returns the
// constant-table index to use with OP_DEFINE_GLOBAL (0 and ignored for
// locals, which carry no runtime name at all).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(lexer.TokenIdentifier, errMsg)
	c.declareVariable(c.previous.Lexeme)
	if c.fn.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(bytecode.OpDefineGlobal), global)
}

// resolveLocal searches fs's locals from the innermost declaration
// outward, returning its slot or -1 if name is not a local there.
func resolveLocal(fs *funcState, name string, c *Compiler) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if identifiersEqual(name, fs.locals[i].name) {
			if fs.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name as an upvalue of fs: either a direct
// capture of a local in fs.enclosing, or a transitive capture of an
// upvalue already resolved there, recursing outward through the
// function-state chain to support multi-level capture.
func resolveUpvalue(fs *funcState, name string, c *Compiler) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := resolveLocal(fs.enclosing, name, c); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return addUpvalue(fs, byte(local), true, c)
	}
	if up := resolveUpvalue(fs.enclosing, name, c); up != -1 {
		return addUpvalue(fs, byte(up), false, c)
	}
	return -1
}

func addUpvalue(fs *funcState, index byte, isLocal bool, c *Compiler) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

// namedVariable emits the get/set opcode pair appropriate to where name
// resolves: local slot, captured upvalue, or global-by-name.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	arg := resolveLocal(c.fn, name, c)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = resolveUpvalue(c.fn, name, c); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}
