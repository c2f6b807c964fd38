package vm

import (
	"io"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/compiler"
)

// compileSource bridges Interpret to the compiler package. *VM satisfies
// compiler.Allocator directly (CopyString/NewFunction/Push|PopCompilerRoot
// live in alloc.go), so the VM is both the allocator and the eventual
// executor of what gets compiled.
func compileSource(vm *VM, source string, stderr io.Writer) (*bytecode.ObjFunction, bool) {
	return compiler.Compile(source, vm, stderr)
}

// Compile exposes compilation without execution, for tooling (the CLI's
// -disassemble flag) that wants the bytecode without running it.
func (vm *VM) Compile(source string) (*bytecode.ObjFunction, bool) {
	return compileSource(vm, source, vm.stderr)
}
