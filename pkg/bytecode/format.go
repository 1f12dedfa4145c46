// Disassembly support: human-readable instruction tracing, used by
// cmd/ember's -trace flag and by VM debug builds. The disassembler walks
// offsets into Chunk.Code directly, decoding each opcode's operand width
// for itself rather than working from a richer instruction struct.
package bytecode

import (
	"fmt"
	"strings"

	"github.com/kristofer/ember/pkg/value"
)

// Disassemble writes a full listing of chunk to a string, labeled name
// (the chunk's function name, or "<script>").
func Disassemble(chunk *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(&b, chunk, offset)
	}
	return b.String()
}

// DisassembleInstruction writes one instruction at offset to b and returns
// the offset of the next instruction.
func DisassembleInstruction(b *strings.Builder, chunk *value.Chunk, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", chunk.Lines[offset])
	}

	op := Opcode(chunk.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal, OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod:
		return constantInstruction(b, op, chunk, offset)
	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpGreater, OpLess, OpAdd, OpSubtract,
		OpMultiply, OpDivide, OpNot, OpNegate, OpPrint, OpCloseUpvalue, OpReturn, OpInherit:
		return simpleInstruction(b, op, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(b, op, chunk, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(b, op, chunk, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(b, op, chunk, offset, 1)
	case OpLoop:
		return jumpInstruction(b, op, chunk, offset, -1)
	case OpClosure:
		return closureInstruction(b, chunk, offset)
	default:
		fmt.Fprintf(b, "Unknown opcode %d\n", op)
		return offset + 1
	}
}

func simpleInstruction(b *strings.Builder, op Opcode, offset int) int {
	fmt.Fprintf(b, "%s\n", op)
	return offset + 1
}

func byteInstruction(b *strings.Builder, op Opcode, chunk *value.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstruction(b *strings.Builder, op Opcode, chunk *value.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 2
}

func invokeInstruction(b *strings.Builder, op Opcode, chunk *value.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	argc := chunk.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'\n", op, argc, idx, chunk.Constants[idx].String())
	return offset + 3
}

func jumpInstruction(b *strings.Builder, op Opcode, chunk *value.Chunk, offset int, sign int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func closureInstruction(b *strings.Builder, chunk *value.Chunk, offset int) int {
	offset++
	constIdx := chunk.Code[offset]
	offset++
	fmt.Fprintf(b, "%-16s %4d '%s'\n", OpClosure, constIdx, chunk.Constants[constIdx].String())

	fn, _ := chunk.Constants[constIdx].Obj.(*value.ObjFunction)
	if fn == nil {
		return offset
	}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		idx := chunk.Code[offset+1]
		offset += 2
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "%04d      |                     %s %d\n", offset-2, kind, idx)
	}
	return offset
}
