package vm

import (
	"io"

	"github.com/rs/zerolog"
)

// Option configures a VM at construction time. Modeled on the functional
// options used throughout the retrieved pack's interpreters (e.g.
// jcorbin/gothird's VMOption) rather than a mutable config struct, so
// zero-value VMs stay a one-line New() call for the common case.
type Option interface{ apply(*VM) }

type optionFunc func(*VM)

func (f optionFunc) apply(vm *VM) { f(vm) }

// WithStdout redirects the stream OP_PRINT writes to.
func WithStdout(w io.Writer) Option {
	return optionFunc(func(vm *VM) { vm.stdout = w })
}

// WithStderr redirects compile- and runtime-error reporting.
func WithStderr(w io.Writer) Option {
	return optionFunc(func(vm *VM) { vm.stderr = w })
}

// WithTraceExecution enables the disassembler-backed instruction trace
// (clox's DEBUG_TRACE_EXECUTION): before every instruction, the current
// value stack and the decoded instruction are logged.
func WithTraceExecution(enabled bool) Option {
	return optionFunc(func(vm *VM) { vm.trace = enabled })
}

// WithStressGC forces a collection before every single allocation,
// matching clox's DEBUG_STRESS_GC — invaluable for shaking out missing
// roots, ruinous for throughput.
func WithStressGC(enabled bool) Option {
	return optionFunc(func(vm *VM) { vm.stressGC = enabled })
}

// WithLogger attaches a structured logger for VM lifecycle events (one
// debug event per GC cycle). Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(vm *VM) { vm.log = logger })
}
