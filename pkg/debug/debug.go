// Package debug renders a Chunk's bytecode as human-readable disassembly
// and backs the VM's instruction trace (-trace / WithTraceExecution).
// Mnemonics are colorized when the process's stdout is a terminal
// (fatih/color's own check), whichever writer the output is sent to;
// with stdout redirected they are written plainly.
package debug

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kristofer/lox/pkg/bytecode"
)

var mnemonic = color.New(color.FgCyan)

// DisassembleChunk writes every instruction in chunk to w, labeled by name.
func DisassembleChunk(chunk *bytecode.Chunk, name string, w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(chunk, offset, w)
	}
}

// DisassembleFunction disassembles fn's own chunk, then recurses into every
// nested ObjFunction found in its constant pool, so a single top-level call
// dumps an entire compilation unit the way clox's REPL -disassemble mode
// does when it walks OP_CLOSURE's function constants.
func DisassembleFunction(fn *bytecode.ObjFunction, w io.Writer) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	DisassembleChunk(fn.Chunk, name, w)
	for _, c := range fn.Chunk.Constants {
		if c.IsFunction() {
			DisassembleFunction(c.AsFunction(), w)
		}
	}
}

// DisassembleInstruction writes the single instruction at offset to w and
// returns the offset of the next one.
func DisassembleInstruction(chunk *bytecode.Chunk, offset int, w io.Writer) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Line(offset) == chunk.Line(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Line(offset))
	}

	op := bytecode.Op(chunk.Code[offset])
	switch op {
	case bytecode.OpConstant:
		return constantInstruction(op, chunk, offset, w)
	case bytecode.OpGetLocal, bytecode.OpSetLocal,
		bytecode.OpGetUpvalue, bytecode.OpSetUpvalue,
		bytecode.OpCall:
		return byteInstruction(op, chunk, offset, w)
	case bytecode.OpGetGlobal, bytecode.OpDefineGlobal, bytecode.OpSetGlobal,
		bytecode.OpGetProperty, bytecode.OpSetProperty, bytecode.OpGetSuper,
		bytecode.OpClass, bytecode.OpMethod:
		return constantInstruction(op, chunk, offset, w)
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		return jumpInstruction(op, 1, chunk, offset, w)
	case bytecode.OpLoop:
		return jumpInstruction(op, -1, chunk, offset, w)
	case bytecode.OpInvoke, bytecode.OpSuperInvoke:
		return invokeInstruction(op, chunk, offset, w)
	case bytecode.OpClosure:
		return closureInstruction(chunk, offset, w)
	default:
		return simpleInstruction(op, offset, w)
	}
}

func simpleInstruction(op bytecode.Op, offset int, w io.Writer) int {
	fmt.Fprintln(w, mnemonic.Sprint(op.String()))
	return offset + 1
}

func byteInstruction(op bytecode.Op, chunk *bytecode.Chunk, offset int, w io.Writer) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", mnemonic.Sprint(op.String()), slot)
	return offset + 2
}

func constantInstruction(op bytecode.Op, chunk *bytecode.Chunk, offset int, w io.Writer) int {
	index := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", mnemonic.Sprint(op.String()), index, bytecode.Stringify(chunk.Constants[index]))
	return offset + 2
}

func jumpInstruction(op bytecode.Op, sign int, chunk *bytecode.Chunk, offset int, w io.Writer) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(w, "%-16s %4d -> %d\n", mnemonic.Sprint(op.String()), offset, target)
	return offset + 3
}

func invokeInstruction(op bytecode.Op, chunk *bytecode.Chunk, offset int, w io.Writer) int {
	index := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	name := bytecode.Stringify(chunk.Constants[index])
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", mnemonic.Sprint(op.String()), argCount, index, name)
	return offset + 3
}

func closureInstruction(chunk *bytecode.Chunk, offset int, w io.Writer) int {
	offset++
	index := chunk.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", mnemonic.Sprint(bytecode.OpClosure.String()), index, bytecode.Stringify(chunk.Constants[index]))

	function := chunk.Constants[index].AsFunction()
	for i := 0; i < function.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		offset++
		localIndex := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, localIndex)
	}
	return offset
}
