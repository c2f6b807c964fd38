package bytecode

import (
	"fmt"
	"io"
	"strconv"
)

// Kind discriminates the four Value variants.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged union: nil, boolean, IEEE-754 double, or a reference to
// a heap Object. It is deliberately an explicit tag+payload struct rather
// than a NaN-boxed word — the spec permits either representation, and the
// explicit form is the one that reads naturally in Go.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	obj    Obj
}

func Nil() Value                 { return Value{kind: KindNil} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(n float64) Value     { return Value{kind: KindNumber, n: n} }
func FromObj(o Obj) Value        { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

// AsBool, AsNumber and AsObj are unchecked: if the Value's kind doesn't
// match they return whatever that payload field holds (its zero value) —
// callers must check Kind()/IsXxx first, matching the source's
// unchecked-union-access contract.
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Obj       { return v.obj }

// IsObjKind reports whether v holds a heap object of the given kind.
func (v Value) IsObjKind(k ObjKind) bool {
	return v.kind == KindObj && v.obj.Kind() == k
}

func (v Value) IsString() bool      { return v.IsObjKind(ObjKindString) }
func (v Value) IsFunction() bool    { return v.IsObjKind(ObjKindFunction) }
func (v Value) IsClosure() bool     { return v.IsObjKind(ObjKindClosure) }
func (v Value) IsClass() bool       { return v.IsObjKind(ObjKindClass) }
func (v Value) IsInstance() bool    { return v.IsObjKind(ObjKindInstance) }
func (v Value) IsBoundMethod() bool { return v.IsObjKind(ObjKindBoundMethod) }
func (v Value) IsNative() bool      { return v.IsObjKind(ObjKindNative) }

func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction { return v.obj.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure   { return v.obj.(*ObjClosure) }
func (v Value) AsClass() *ObjClass       { return v.obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance { return v.obj.(*ObjInstance) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.obj.(*ObjBoundMethod) }
func (v Value) AsNative() *ObjNative { return v.obj.(*ObjNative) }

// HashString computes the 32-bit FNV-1a hash of s, used to key every
// interned string and to probe the intern set before allocating a new one.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// IsFalsey implements the language's truthiness rule: nil and false are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements structural equality (spec §3): same kind required;
// booleans and numbers compare by value; nil always equals nil; objects
// compare by reference identity, which for strings is correct precisely
// because every string is interned.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print writes v's printed form to w, matching the canonical rendering
// table in spec §6.
func Print(w io.Writer, v Value) {
	fmt.Fprint(w, Stringify(v))
}

// Stringify renders v the way OP_PRINT and string concatenation do.
func Stringify(v Value) string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindObj:
		return stringifyObj(v.obj)
	default:
		return "?"
	}
}

func stringifyObj(o Obj) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		if obj.Name == nil {
			return "<script>"
		}
		return "<fn " + obj.Name.Chars + ">"
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return stringifyObj(obj.Function)
	case *ObjUpvalue:
		return "upvalue"
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return obj.Class.Name.Chars + " instance"
	case *ObjBoundMethod:
		return stringifyObj(obj.Method)
	default:
		return "<obj>"
	}
}
