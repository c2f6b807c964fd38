// Package vm implements the stack-based bytecode interpreter: the value
// stack, call frames, upvalue machinery, method dispatch, runtime error
// reporting, and the memory manager (allocation bookkeeping and the
// tri-color garbage collector) that backs it.
//
// Pipeline:
//
//	source text -> compiler -> top-level Function -> VM wraps it in a
//	Closure and pushes the first call frame -> the interpreter loop
//	dispatches on opcodes, allocating heap objects through the VM's
//	allocator, which may run a collection before returning memory.
//
// The VM is single-threaded and cooperative: no instruction suspends, and
// one VM instance's stacks/tables/heap list are not safe to share across
// goroutines. Multiple independent VM instances may run concurrently
// provided each stays confined to one goroutine.
package vm

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/table"
)

const framesMax = 64
const stackMax = framesMax * 256

// InterpretResult is the outcome of a call to Interpret, matching the
// three-way result clox returns from interpret().
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// callFrame is the interpreter's record for one in-flight call: the
// closure being executed, its own instruction pointer, and the base index
// into the VM's value stack where this call's local-variable window
// starts (slot 0 is the callee itself / `this`).
type callFrame struct {
	closure *bytecode.ObjClosure
	ip      int
	slots   int
}

// VM is one self-contained interpreter instance: its stacks, tables, heap
// list and GC counters are private to it and never shared with another VM.
type VM struct {
	stack    [stackMax]bytecode.Value
	stackTop int

	frames     [framesMax]callFrame
	frameCount int

	globals *table.Table
	strings *table.Table

	openUpvalues *bytecode.ObjUpvalue

	objects        bytecode.Obj
	bytesAllocated int
	nextGC         int
	grayStack      []bytecode.Obj

	initString *bytecode.ObjString

	// compilerRoots holds Function objects under construction by an
	// active Compile call, so a collection triggered mid-compilation
	// (e.g. by interning an identifier) doesn't reclaim them.
	compilerRoots []*bytecode.ObjFunction

	stdout io.Writer
	stderr io.Writer

	stressGC bool
	trace    bool
	log      zerolog.Logger
}

const initialNextGC = 1 << 20 // 1 MiB

// New constructs a VM ready to Interpret source. Globals and the string
// intern set persist across multiple Interpret calls on the same VM; the
// value stack and call frames are reset by each one.
func New(opts ...Option) *VM {
	vm := &VM{
		globals: table.New(),
		strings: table.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		nextGC:  initialNextGC,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt.apply(vm)
	}
	vm.initString = vm.CopyString("init")
	vm.defineNatives()
	return vm
}

// Stdout and Stderr expose the VM's output streams, e.g. so the CLI can
// flush or redirect them.
func (vm *VM) Stdout() io.Writer { return vm.stdout }
func (vm *VM) Stderr() io.Writer { return vm.stderr }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() bytecode.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret compiles and runs source against this VM instance.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := compileSource(vm, source, vm.stderr)
	if !ok {
		return InterpretCompileError
	}

	vm.push(bytecode.FromObj(fn))
	closure := vm.NewClosure(fn)
	vm.pop()
	vm.push(bytecode.FromObj(closure))
	vm.callClosure(closure, 0)

	return vm.run()
}
