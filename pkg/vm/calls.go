package vm

import "github.com/kristofer/lox/pkg/bytecode"

// callValue dispatches a value appearing in call position: a closure call,
// a class acting as its own constructor, a bound method rebinding its
// receiver, or a native. Non-callable values are a runtime error. Returns
// false once a runtime error has already been reported, so callers can
// write `if !vm.callValue(...) { return InterpretRuntimeError }`.
func (vm *VM) callValue(callee bytecode.Value, argCount int) bool {
	if callee.IsObj() {
		switch callee := callee.AsObj().(type) {
		case *bytecode.ObjBoundMethod:
			vm.stack[vm.stackTop-argCount-1] = callee.Receiver
			return vm.callClosure(callee.Method, argCount)
		case *bytecode.ObjClass:
			vm.stack[vm.stackTop-argCount-1] = bytecode.FromObj(vm.newInstance(callee))
			if initializer, ok := callee.Methods.Get(vm.initString); ok {
				return vm.callClosure(initializer.AsClosure(), argCount)
			} else if argCount != 0 {
				vm.runtimeError("Expected 0 arguments but got %d.", argCount)
				return false
			}
			return true
		case *bytecode.ObjClosure:
			return vm.callClosure(callee, argCount)
		case *bytecode.ObjNative:
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result := callee.Function(argCount, args)
			vm.stackTop -= argCount + 1
			vm.push(result)
			return true
		}
	}
	vm.runtimeError("Can only call functions and classes.")
	return false
}

// callClosure pushes a new call frame for closure, checking arity and the
// frame-count ceiling first. slots is the index into the VM's value stack
// where the callee itself (then its parameters) already sit.
func (vm *VM) callClosure(closure *bytecode.ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return true
}

// invoke fast-paths the common `receiver.name(args)` call shape: a field
// named name is called as an ordinary value; otherwise invokeFromClass
// looks the method up on the class and calls it without materializing an
// intermediate bound method.
func (vm *VM) invoke(name *bytecode.ObjString, argCount int) bool {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		vm.runtimeError("Only instances have methods.")
		return false
	}

	instance := receiver.AsInstance()
	if value, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = value
		return vm.callValue(value, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.callClosure(method.AsClosure(), argCount)
}

// bindMethod looks up name on class, wraps it with the value currently on
// top of the stack as receiver, and replaces that value with the bound
// method. Returns false (after reporting) if class has no such method.
func (vm *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}

	bound := vm.newBoundMethod(vm.peek(0), method.AsClosure())
	vm.pop()
	vm.push(bytecode.FromObj(bound))
	return true
}

// captureUpvalue returns the open upvalue already pointing at stack slot,
// or creates and links a new one. The open list stays ordered by
// descending slot so closeUpvalues can stop at the first entry below its
// threshold.
func (vm *VM) captureUpvalue(slot int) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	upvalue := vm.openUpvalues
	for upvalue != nil && upvalue.Slot > slot {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}
	if upvalue != nil && upvalue.Slot == slot {
		return upvalue
	}

	created := vm.newUpvalue(&vm.stack[slot])
	created.Slot = slot
	created.NextOpen = upvalue
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above last, copying each
// referenced stack value into the upvalue's own storage before the slot it
// pointed at goes out of scope or is popped.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		upvalue := vm.openUpvalues
		upvalue.Close()
		vm.openUpvalues = upvalue.NextOpen
	}
}

// defineMethod pops a closure off the stack and installs it under name in
// the method table of the class just beneath it (the compiler loads the
// class onto the stack before the class body, and it stays there while
// the body's OP_METHODs run).
func (vm *VM) defineMethod(name *bytecode.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}
