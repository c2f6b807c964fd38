package vm

import "github.com/kristofer/lox/pkg/bytecode"

// collectGarbage runs one full tri-color mark-and-sweep cycle: mark every
// root, drain the gray worklist by blackening each object in turn, weakly
// clear the intern set of strings that didn't survive marking, then sweep
// the all-objects list. nextGC grows proportionally so collections get
// less frequent as the live set grows.
func (vm *VM) collectGarbage() {
	before := vm.bytesAllocated
	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * 2
	vm.log.Debug().
		Int("before", before).
		Int("after", vm.bytesAllocated).
		Int("next_gc", vm.nextGC).
		Msg("gc cycle")
}

// markObject marks obj gray (Marked=true, pushed onto the gray worklist).
// Already-marked objects are a no-op — this is what makes cyclic graphs
// (closures capturing each other, a method closing over its own class)
// safe: the second visit never recurses.
func (vm *VM) markObject(obj bytecode.Obj) {
	if isNilObj(obj) {
		return
	}
	h := obj.GetHeader()
	if h.Marked {
		return
	}
	h.Marked = true
	vm.grayStack = append(vm.grayStack, obj)
}

// isNilObj reports whether obj is either the untyped-nil interface or a
// concrete *Obj pointer that is nil. A nil *ObjString boxed into the Obj
// interface is NOT caught by a plain `obj == nil` check — the interface
// itself holds a (type, nil-pointer) pair and so compares non-nil — which
// is exactly how an unset ObjFunction.Name, a not-yet-captured
// ObjClosure.Upvalues slot, or a VM's initString read before it's been
// assigned would otherwise reach GetHeader() and panic. Every concrete
// kind the collector ever marks is enumerated here so the check is exact
// rather than relying on reflection.
func isNilObj(obj bytecode.Obj) bool {
	switch o := obj.(type) {
	case nil:
		return true
	case *bytecode.ObjString:
		return o == nil
	case *bytecode.ObjFunction:
		return o == nil
	case *bytecode.ObjNative:
		return o == nil
	case *bytecode.ObjClosure:
		return o == nil
	case *bytecode.ObjUpvalue:
		return o == nil
	case *bytecode.ObjClass:
		return o == nil
	case *bytecode.ObjInstance:
		return o == nil
	case *bytecode.ObjBoundMethod:
		return o == nil
	default:
		return false
	}
}

// markValue marks v only if it holds a heap reference; nil/bool/number
// values carry no outgoing edges.
func (vm *VM) markValue(v bytecode.Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for u := vm.openUpvalues; u != nil; u = u.NextOpen {
		vm.markObject(u)
	}
	vm.globals.Mark(vm.markObject, vm.markValue)
	// initString is nil for the brief window in New() before CopyString("init")
	// returns; markObject's isNilObj check makes that window collection-safe.
	vm.markObject(vm.initString)
	for _, fn := range vm.compilerRoots {
		vm.markObject(fn)
	}
}

// traceReferences drains the gray worklist, blackening each object by
// marking whatever it points to until nothing gray remains.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		obj := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(obj)
	}
}

func (vm *VM) blacken(obj bytecode.Obj) {
	switch o := obj.(type) {
	case *bytecode.ObjBoundMethod:
		vm.markValue(o.Receiver)
		vm.markObject(o.Method)
	case *bytecode.ObjClass:
		vm.markObject(o.Name)
		o.Methods.Mark(vm.markObject, vm.markValue)
	case *bytecode.ObjClosure:
		vm.markObject(o.Function)
		// Upvalues is sized by NewClosure before OP_CLOSURE fills each slot,
		// so a collection mid-capture can see nil entries; isNilObj skips them.
		for _, u := range o.Upvalues {
			vm.markObject(u)
		}
	case *bytecode.ObjFunction:
		// Name is nil for the top-level script function.
		vm.markObject(o.Name)
		for _, c := range o.Chunk.Constants {
			vm.markValue(c)
		}
	case *bytecode.ObjInstance:
		vm.markObject(o.Class)
		o.Fields.Mark(vm.markObject, vm.markValue)
	case *bytecode.ObjUpvalue:
		vm.markValue(o.Closed)
	case *bytecode.ObjString, *bytecode.ObjNative:
		// no outgoing references
	}
}

// sweep walks the all-objects list once. A survivor has its mark bit
// cleared (so the next cycle sees it as white again); an unmarked object
// is unlinked and its accounted size subtracted from bytesAllocated.
// There is no manual free in Go — unlinking drops the last reference GC
// roots could reach it through, and the host allocator reclaims the
// memory once Go's own collector notices it's unreachable.
func (vm *VM) sweep() {
	var prev bytecode.Obj
	obj := vm.objects
	for obj != nil {
		h := obj.GetHeader()
		if h.Marked {
			h.Marked = false
			prev = obj
			obj = h.Next
			continue
		}
		unreached := obj
		obj = h.Next
		if prev != nil {
			prev.GetHeader().Next = obj
		} else {
			vm.objects = obj
		}
		vm.bytesAllocated -= approxSize(unreached)
	}
}
