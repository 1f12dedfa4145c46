// Package bytecode defines the instruction set for ember.
//
// The bytecode is the low-level intermediate representation that the ember
// virtual machine (VM) executes. A chunk (see pkg/value.Chunk — it lives
// next to the Value/object model because an ObjFunction embeds one
// directly) is a packed byte stream plus a constant pool plus a parallel
// per-byte source line table: there is no richer instruction struct sitting
// between the compiler and the VM. The compiler writes bytes directly, and
// the VM reads them back one at a time.
//
// Architecture:
//
//  1. Values are pushed onto and popped from a runtime stack
//  2. Most opcodes consume values from the stack and push a result back
//  3. Locals and upvalues are addressed by slot/index, not by name
//  4. Globals, fields, and methods are addressed by a name constant and
//     resolved through a hash table at runtime
//
// Instruction format:
//
// Each instruction is a one-byte opcode optionally followed by a one-byte
// operand (constant/local/upvalue index, argument count) or a two-byte
// big-endian operand (a jump offset), or — for CLOSURE — a one-byte operand
// followed by a run of two-byte (isLocal, index) pairs, one per upvalue.
package bytecode

// Opcode represents a single bytecode instruction operation.
type Opcode byte

// Bytecode instruction opcodes. Each opcode's operand and stack contract is
// documented where the compiler emits it and the VM dispatches it.
const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpGetLocal
	OpSetLocal
	OpGetUpvalue
	OpSetUpvalue
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal
	OpGetProperty
	OpSetProperty
	OpGetSuper

	OpEqual
	OpGreater
	OpLess

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod
)

// String returns a human-readable mnemonic for an opcode, used by the
// disassembler.
func (op Opcode) String() string {
	switch op {
	case OpConstant:
		return "OP_CONSTANT"
	case OpNil:
		return "OP_NIL"
	case OpTrue:
		return "OP_TRUE"
	case OpFalse:
		return "OP_FALSE"
	case OpPop:
		return "OP_POP"
	case OpGetLocal:
		return "OP_GET_LOCAL"
	case OpSetLocal:
		return "OP_SET_LOCAL"
	case OpGetUpvalue:
		return "OP_GET_UPVALUE"
	case OpSetUpvalue:
		return "OP_SET_UPVALUE"
	case OpGetGlobal:
		return "OP_GET_GLOBAL"
	case OpSetGlobal:
		return "OP_SET_GLOBAL"
	case OpDefineGlobal:
		return "OP_DEFINE_GLOBAL"
	case OpGetProperty:
		return "OP_GET_PROPERTY"
	case OpSetProperty:
		return "OP_SET_PROPERTY"
	case OpGetSuper:
		return "OP_GET_SUPER"
	case OpEqual:
		return "OP_EQUAL"
	case OpGreater:
		return "OP_GREATER"
	case OpLess:
		return "OP_LESS"
	case OpAdd:
		return "OP_ADD"
	case OpSubtract:
		return "OP_SUBTRACT"
	case OpMultiply:
		return "OP_MULTIPLY"
	case OpDivide:
		return "OP_DIVIDE"
	case OpNot:
		return "OP_NOT"
	case OpNegate:
		return "OP_NEGATE"
	case OpPrint:
		return "OP_PRINT"
	case OpJump:
		return "OP_JUMP"
	case OpJumpIfFalse:
		return "OP_JUMP_IF_FALSE"
	case OpLoop:
		return "OP_LOOP"
	case OpCall:
		return "OP_CALL"
	case OpInvoke:
		return "OP_INVOKE"
	case OpSuperInvoke:
		return "OP_SUPER_INVOKE"
	case OpClosure:
		return "OP_CLOSURE"
	case OpCloseUpvalue:
		return "OP_CLOSE_UPVALUE"
	case OpReturn:
		return "OP_RETURN"
	case OpClass:
		return "OP_CLASS"
	case OpInherit:
		return "OP_INHERIT"
	case OpMethod:
		return "OP_METHOD"
	default:
		return "OP_UNKNOWN"
	}
}

// MaxConstants is the hard limit on a chunk's constant pool: constants are
// referenced by an 8-bit index.
const MaxConstants = 256
