// Package bytecode defines the bytecode format the compiler emits and the
// value representation the virtual machine operates on.
//
// It bundles three things the C original keeps in separate translation
// units but that are mutually recursive in Go — Value, the heap Object
// kinds, and the Chunk container that holds both opcodes and a Value
// constant pool — into one package, split across opcode.go, value.go,
// object.go and chunk.go for readability. See DESIGN.md for why these
// can't be split across packages without an import cycle.
//
// Architecture:
//
// The bytecode is a stack-based instruction stream where:
//  1. Values are pushed onto and popped from the VM's value stack
//  2. Operations consume operands from the stack and push results back
//  3. Locals live in the active call frame's stack window; globals live
//     in a VM-wide hash table; instance fields live per-Instance
//  4. Method dispatch (INVOKE/SUPER_INVOKE) fuses a property lookup with
//     a call so the common case never materializes a BoundMethod
package bytecode

// Op identifies a single bytecode instruction. Opcodes are one byte, so a
// Chunk's code stream is compact and cheap to decode.
type Op byte

// The canonical opcode set (spec §4.5).
const (
	// OpConstant loads constants[operand] onto the stack.
	// Operand: 1-byte index into the chunk's constant pool.
	OpConstant Op = iota

	OpNil
	OpTrue
	OpFalse

	// OpPop discards the top of the stack.
	OpPop

	// OpGetLocal / OpSetLocal address frame.slots[operand]. SetLocal
	// leaves the assigned value on the stack (assignment is an expression).
	OpGetLocal
	OpSetLocal

	// OpGetGlobal / OpSetGlobal / OpDefineGlobal operate on the VM's
	// globals table, keyed by the interned string at constants[operand].
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal

	// OpGetUpvalue / OpSetUpvalue dereference through the active
	// closure's upvalue vector.
	OpGetUpvalue
	OpSetUpvalue

	// OpGetProperty / OpSetProperty read or write an Instance's fields.
	// OpGetProperty falls through to the class's method table, binding
	// a BoundMethod when the name isn't a field.
	OpGetProperty
	OpSetProperty

	// OpGetSuper resolves a method on the enclosing class's superclass
	// and binds it to the current `this`.
	OpGetSuper

	OpEqual
	OpGreater
	OpLess

	// OpAdd is overloaded: numeric addition or string concatenation.
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide

	OpNot
	OpNegate

	// OpPrint pops the stack and writes its printed form plus a newline
	// to the VM's stdout stream.
	OpPrint

	// OpJump / OpJumpIfFalse carry a 2-byte big-endian forward offset.
	// OpJumpIfFalse peeks (does not pop) the condition.
	OpJump
	OpJumpIfFalse

	// OpLoop carries a 2-byte big-endian backward offset.
	OpLoop

	// OpCall invokes the callable at stackTop-operand-1.
	// Operand: argument count.
	OpCall

	// OpInvoke fuses OpGetProperty+OpCall: name-const-idx (1B), argCount (1B).
	OpInvoke

	// OpSuperInvoke fuses OpGetSuper+OpCall: name-const-idx (1B), argCount (1B).
	OpSuperInvoke

	// OpClosure wraps constants[operand] (a Function) in a new Closure.
	// Followed by upvalueCount pairs of (isLocal byte, index byte).
	OpClosure

	// OpCloseUpvalue closes the open upvalue referring to stackTop-1,
	// then pops it.
	OpCloseUpvalue

	OpReturn

	// OpClass pushes a new, empty Class named constants[operand].
	OpClass

	// OpInherit copies every method from the superclass at stackTop-2
	// into the subclass at stackTop-1, then pops the subclass.
	OpInherit

	// OpMethod pops a Closure and stores it as a method named
	// constants[operand] on the class now at the top of the stack.
	OpMethod
)

var opNames = [...]string{
	OpConstant:      "OP_CONSTANT",
	OpNil:           "OP_NIL",
	OpTrue:          "OP_TRUE",
	OpFalse:         "OP_FALSE",
	OpPop:           "OP_POP",
	OpGetLocal:      "OP_GET_LOCAL",
	OpSetLocal:      "OP_SET_LOCAL",
	OpGetGlobal:     "OP_GET_GLOBAL",
	OpSetGlobal:     "OP_SET_GLOBAL",
	OpDefineGlobal:  "OP_DEFINE_GLOBAL",
	OpGetUpvalue:    "OP_GET_UPVALUE",
	OpSetUpvalue:    "OP_SET_UPVALUE",
	OpGetProperty:   "OP_GET_PROPERTY",
	OpSetProperty:   "OP_SET_PROPERTY",
	OpGetSuper:      "OP_GET_SUPER",
	OpEqual:         "OP_EQUAL",
	OpGreater:       "OP_GREATER",
	OpLess:          "OP_LESS",
	OpAdd:           "OP_ADD",
	OpSubtract:      "OP_SUBTRACT",
	OpMultiply:      "OP_MULTIPLY",
	OpDivide:        "OP_DIVIDE",
	OpNot:           "OP_NOT",
	OpNegate:        "OP_NEGATE",
	OpPrint:         "OP_PRINT",
	OpJump:          "OP_JUMP",
	OpJumpIfFalse:   "OP_JUMP_IF_FALSE",
	OpLoop:          "OP_LOOP",
	OpCall:          "OP_CALL",
	OpInvoke:        "OP_INVOKE",
	OpSuperInvoke:   "OP_SUPER_INVOKE",
	OpClosure:       "OP_CLOSURE",
	OpCloseUpvalue:  "OP_CLOSE_UPVALUE",
	OpReturn:        "OP_RETURN",
	OpClass:         "OP_CLASS",
	OpInherit:       "OP_INHERIT",
	OpMethod:        "OP_METHOD",
}

// String renders an opcode's mnemonic, used by the disassembler (and so
// by the -trace instruction log).
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "OP_UNKNOWN"
}
