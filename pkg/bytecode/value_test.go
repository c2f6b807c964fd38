package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueKindPredicates(t *testing.T) {
	assert.True(t, Nil().IsNil())
	assert.True(t, Bool(true).IsBool())
	assert.True(t, Number(3.5).IsNumber())

	str := &ObjString{Chars: "hi"}
	assert.True(t, FromObj(str).IsObj())
	assert.True(t, FromObj(str).IsString())
	assert.False(t, FromObj(str).IsClass())
}

func TestValueIsFalsey(t *testing.T) {
	assert.True(t, Nil().IsFalsey())
	assert.True(t, Bool(false).IsFalsey())
	assert.False(t, Bool(true).IsFalsey())
	assert.False(t, Number(0).IsFalsey())
	assert.False(t, FromObj(&ObjString{Chars: ""}).IsFalsey())
}

func TestEqualStructural(t *testing.T) {
	assert.True(t, Equal(Nil(), Nil()))
	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.False(t, Equal(Number(1), Bool(true)))

	a := &ObjString{Chars: "x"}
	b := &ObjString{Chars: "x"}
	assert.True(t, Equal(FromObj(a), FromObj(a)))
	assert.False(t, Equal(FromObj(a), FromObj(b)), "distinct objects are never equal, even with equal content")
}

func TestHashStringIsDeterministic(t *testing.T) {
	assert.Equal(t, HashString("hello"), HashString("hello"))
	assert.NotEqual(t, HashString("hello"), HashString("world"))
}

func TestStringifyPrimitives(t *testing.T) {
	assert.Equal(t, "nil", Stringify(Nil()))
	assert.Equal(t, "true", Stringify(Bool(true)))
	assert.Equal(t, "false", Stringify(Bool(false)))
	assert.Equal(t, "3", Stringify(Number(3)))
	assert.Equal(t, "3.25", Stringify(Number(3.25)))
}

func TestStringifyObjects(t *testing.T) {
	str := &ObjString{Chars: "hi"}
	assert.Equal(t, "hi", Stringify(FromObj(str)))

	fn := &ObjFunction{Name: &ObjString{Chars: "add"}}
	assert.Equal(t, "<fn add>", Stringify(FromObj(fn)))

	script := &ObjFunction{}
	assert.Equal(t, "<script>", Stringify(FromObj(script)))

	class := &ObjClass{Name: &ObjString{Chars: "Counter"}}
	assert.Equal(t, "Counter", Stringify(FromObj(class)))

	instance := &ObjInstance{Class: class}
	assert.Equal(t, "Counter instance", Stringify(FromObj(instance)))
}

func TestPrintWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Number(42))
	assert.Equal(t, "42", buf.String())
}
