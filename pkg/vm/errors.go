package vm

import "fmt"

// runtimeError writes a formatted message followed by a call-stack trace
// to the VM's stderr, then resets the stack so the VM is ready to accept
// another Interpret call. It always returns InterpretRuntimeError, so
// callers in the dispatch loop can write `return vm.runtimeError(...)`.
//
// The trace walks frames innermost to outermost, printing one line per
// frame in the form `[line N] in <name>` — `<name>` is `script` for the
// top-level frame or `NAME()` for a named function, matching clox's
// runtimeError exactly.
func (vm *VM) runtimeError(format string, args ...interface{}) InterpretResult {
	fmt.Fprintf(vm.stderr, format, args...)
	fmt.Fprintln(vm.stderr)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		function := frame.closure.Function
		instruction := frame.ip - 1
		line := function.Chunk.Line(instruction)
		name := "script"
		if function.Name != nil {
			name = function.Name.Chars + "()"
		}
		fmt.Fprintf(vm.stderr, "[line %d] in %s\n", line, name)
	}

	vm.resetStack()
	return InterpretRuntimeError
}
