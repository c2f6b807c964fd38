package vm

import (
	"github.com/kristofer/lox/internal/natives"
	"github.com/kristofer/lox/pkg/bytecode"
)

// defineNatives installs every entry from internal/natives into this VM's
// globals table, ready before any user source runs.
func (vm *VM) defineNatives() {
	for _, n := range natives.All() {
		vm.defineNative(n.Name, n.Fn)
	}
}

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	// Root both the name string and the native object on the stack across
	// the two allocations (CopyString, NewNative) so a GC triggered by
	// either can't reclaim the one not yet referenced from anywhere else.
	vm.push(bytecode.FromObj(vm.CopyString(name)))
	vm.push(bytecode.FromObj(vm.NewNative(name, fn)))
	vm.globals.Set(vm.stack[0].AsString(), vm.stack[1])
	vm.pop()
	vm.pop()
}
