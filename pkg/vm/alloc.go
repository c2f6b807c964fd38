package vm

import (
	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/table"
)

func newMethodTable() bytecode.MethodTable { return table.New() }

// allocate tracks delta bytes of new heap usage and triggers a collection
// before the allocation is used whenever bytesAllocated crosses nextGC (or
// unconditionally under -stress-gc). Every path that creates a heap object
// funnels through here first, exactly as the spec's GC section requires.
func (vm *VM) allocate(delta int) {
	vm.bytesAllocated += delta
	if vm.stressGC || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
}

// track prepends obj to the all-objects list and clears its mark bit —
// every object the sweeper will ever consider starts here.
func (vm *VM) track(obj bytecode.Obj) {
	h := obj.GetHeader()
	h.Marked = false
	h.Next = vm.objects
	vm.objects = obj
}

// approxSize is a rough per-kind byte estimate used only to drive the
// growth heuristic — the collector's correctness never depends on this
// number being exact, only on it moving in the right direction.
func approxSize(obj bytecode.Obj) int {
	switch o := obj.(type) {
	case *bytecode.ObjString:
		return 32 + len(o.Chars)
	case *bytecode.ObjFunction:
		return 64
	case *bytecode.ObjNative:
		return 32
	case *bytecode.ObjClosure:
		return 32 + 8*len(o.Upvalues)
	case *bytecode.ObjUpvalue:
		return 32
	case *bytecode.ObjClass:
		return 48
	case *bytecode.ObjInstance:
		return 48
	case *bytecode.ObjBoundMethod:
		return 32
	default:
		return 16
	}
}

// CopyString interns a string the allocator does not own a copy of yet:
// the caller's bytes are only read, never retained, so a fresh ObjString
// is allocated on a miss.
func (vm *VM) CopyString(s string) *bytecode.ObjString {
	hash := bytecode.HashString(s)
	if interned := vm.strings.FindString(s, hash); interned != nil {
		return interned
	}
	return vm.newInternedString(s, hash)
}

// TakeString interns a string the caller has already materialized and is
// handing ownership of. If an equal string is already interned, the
// caller's copy is simply dropped (Go's GC reclaims it) instead of being
// retained twice.
func (vm *VM) TakeString(s string) *bytecode.ObjString {
	hash := bytecode.HashString(s)
	if interned := vm.strings.FindString(s, hash); interned != nil {
		return interned
	}
	return vm.newInternedString(s, hash)
}

func (vm *VM) newInternedString(s string, hash uint32) *bytecode.ObjString {
	vm.allocate(32 + len(s))
	str := &bytecode.ObjString{Chars: s, Hash: hash}
	vm.track(str)
	// The intern set roots the string with push/pop around Set so a GC
	// triggered by growing the table itself can't collect str first.
	vm.push(bytecode.FromObj(str))
	vm.strings.Set(str, bytecode.Nil())
	vm.pop()
	return str
}

func (vm *VM) NewFunction() *bytecode.ObjFunction {
	vm.allocate(approxSize((*bytecode.ObjFunction)(nil)))
	fn := &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
	vm.track(fn)
	return fn
}

func (vm *VM) NewNative(name string, fn bytecode.NativeFn) *bytecode.ObjNative {
	vm.allocate(32)
	n := &bytecode.ObjNative{Function: fn, Name: name}
	vm.track(n)
	return n
}

func (vm *VM) NewClosure(fn *bytecode.ObjFunction) *bytecode.ObjClosure {
	vm.allocate(32 + 8*fn.UpvalueCount)
	c := &bytecode.ObjClosure{Function: fn, Upvalues: make([]*bytecode.ObjUpvalue, fn.UpvalueCount)}
	vm.track(c)
	return c
}

func (vm *VM) newUpvalue(location *bytecode.Value) *bytecode.ObjUpvalue {
	vm.allocate(32)
	u := &bytecode.ObjUpvalue{Location: location}
	vm.track(u)
	return u
}

func (vm *VM) NewClass(name *bytecode.ObjString) *bytecode.ObjClass {
	vm.allocate(48)
	c := &bytecode.ObjClass{Name: name, Methods: newMethodTable()}
	vm.track(c)
	return c
}

func (vm *VM) newInstance(class *bytecode.ObjClass) *bytecode.ObjInstance {
	vm.allocate(48)
	i := &bytecode.ObjInstance{Class: class, Fields: newMethodTable()}
	vm.track(i)
	return i
}

func (vm *VM) newBoundMethod(receiver bytecode.Value, method *bytecode.ObjClosure) *bytecode.ObjBoundMethod {
	vm.allocate(32)
	b := &bytecode.ObjBoundMethod{Receiver: receiver, Method: method}
	vm.track(b)
	return b
}

// PushCompilerRoot and PopCompilerRoot implement compiler.Allocator: they
// let an in-progress Compile call root Function objects that aren't
// reachable from the VM's own stacks yet, so a GC triggered while
// compiling (e.g. interning an identifier constant) can't collect them.
func (vm *VM) PushCompilerRoot(fn *bytecode.ObjFunction) {
	vm.compilerRoots = append(vm.compilerRoots, fn)
}

func (vm *VM) PopCompilerRoot() {
	vm.compilerRoots = vm.compilerRoots[:len(vm.compilerRoots)-1]
}
