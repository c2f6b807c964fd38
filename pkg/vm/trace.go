package vm

import (
	"fmt"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/debug"
)

// traceInstruction implements DEBUG_TRACE_EXECUTION: print the current
// value stack bottom-to-top, then disassemble the instruction about to
// run. Only called when WithTraceExecution(true) was passed to New.
func (vm *VM) traceInstruction(frame *callFrame) {
	fmt.Fprint(vm.stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprint(vm.stderr, "[ ")
		bytecode.Print(vm.stderr, vm.stack[i])
		fmt.Fprint(vm.stderr, " ]")
	}
	fmt.Fprintln(vm.stderr)
	debug.DisassembleInstruction(frame.closure.Function.Chunk, frame.ip, vm.stderr)
}
