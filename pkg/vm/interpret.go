package vm

import (
	"fmt"

	"github.com/kristofer/lox/pkg/bytecode"
)

// run is the bytecode dispatch loop: fetch one opcode from the current
// frame's chunk, decode any operands, execute, repeat until OP_RETURN
// unwinds the last frame or a runtime error aborts the run.
func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() uint16 {
		hi := frame.closure.Function.Chunk.Code[frame.ip]
		lo := frame.closure.Function.Chunk.Code[frame.ip+1]
		frame.ip += 2
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() bytecode.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *bytecode.ObjString {
		return readConstant().AsString()
	}

	for {
		if vm.trace {
			vm.traceInstruction(frame)
		}

		op := bytecode.Op(readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(readConstant())

		case bytecode.OpNil:
			vm.push(bytecode.Nil())
		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))
		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := int(readByte())
			vm.push(vm.stack[frame.slots+slot])

		case bytecode.OpSetLocal:
			slot := int(readByte())
			vm.stack[frame.slots+slot] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := readString()
			value, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)

		case bytecode.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case bytecode.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case bytecode.OpGetUpvalue:
			slot := int(readByte())
			vm.push(*frame.closure.Upvalues[slot].Location)

		case bytecode.OpSetUpvalue:
			slot := int(readByte())
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			if !vm.peek(0).IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := readString()
			if value, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(value)
				break
			}
			if !vm.bindMethod(instance.Class, name) {
				return InterpretRuntimeError
			}

		case bytecode.OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsInstance()
			instance.Fields.Set(readString(), vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case bytecode.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsClass()
			if !vm.bindMethod(superclass, name) {
				return InterpretRuntimeError
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool(bytecode.Equal(a, b)))

		case bytecode.OpGreater:
			if res, ok := vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a > b) }); ok {
				vm.push(res)
			} else {
				return InterpretRuntimeError
			}

		case bytecode.OpLess:
			if res, ok := vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a < b) }); ok {
				vm.push(res)
			} else {
				return InterpretRuntimeError
			}

		case bytecode.OpAdd:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				b := vm.pop().AsString()
				a := vm.pop().AsString()
				vm.push(bytecode.FromObj(vm.TakeString(a.Chars + b.Chars)))
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().AsNumber()
				a := vm.pop().AsNumber()
				vm.push(bytecode.Number(a + b))
			default:
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case bytecode.OpSubtract:
			if res, ok := vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a - b) }); ok {
				vm.push(res)
			} else {
				return InterpretRuntimeError
			}

		case bytecode.OpMultiply:
			if res, ok := vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a * b) }); ok {
				vm.push(res)
			} else {
				return InterpretRuntimeError
			}

		case bytecode.OpDivide:
			if res, ok := vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a / b) }); ok {
				vm.push(res)
			} else {
				return InterpretRuntimeError
			}

		case bytecode.OpNot:
			vm.push(bytecode.Bool(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(bytecode.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			bytecode.Print(vm.stdout, vm.pop())
			fmt.Fprintln(vm.stdout)

		case bytecode.OpJump:
			offset := readShort()
			frame.ip += int(offset)

		case bytecode.OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}

		case bytecode.OpLoop:
			offset := readShort()
			frame.ip -= int(offset)

		case bytecode.OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpInvoke:
			method := readString()
			argCount := int(readByte())
			if !vm.invoke(method, argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpSuperInvoke:
			method := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsClass()
			if !vm.invokeFromClass(superclass, method, argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			function := readConstant().AsFunction()
			closure := vm.NewClosure(function)
			vm.push(bytecode.FromObj(closure))
			for i := 0; i < function.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClass:
			vm.push(bytecode.FromObj(vm.NewClass(readString())))

		case bytecode.OpInherit:
			superValue := vm.peek(1)
			if !superValue.IsClass() {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			superValue.AsClass().Methods.AddAllTo(subclass.Methods)
			vm.pop()

		case bytecode.OpMethod:
			vm.defineMethod(readString())

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// binaryNumberOp implements the shared "pop two, require both numbers,
// push f(a, b)" shape behind OP_GREATER/LESS/SUBTRACT/MULTIPLY/DIVIDE. ok
// is false (and the caller should return InterpretRuntimeError) when
// either operand isn't a number — the runtime error has already been
// reported by the time this returns.
func (vm *VM) binaryNumberOp(f func(a, b float64) bytecode.Value) (bytecode.Value, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return bytecode.Nil(), false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	return f(a, b), true
}
