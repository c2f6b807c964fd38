package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjHeaderAccess(t *testing.T) {
	str := &ObjString{Chars: "x"}
	assert.Equal(t, ObjKindString, str.Kind())
	assert.False(t, str.GetHeader().Marked)

	str.GetHeader().Marked = true
	assert.True(t, str.GetHeader().Marked)
}

func TestUpvalueClose(t *testing.T) {
	v := Number(7)
	u := &ObjUpvalue{Location: &v}
	u.Close()

	assert.Equal(t, &u.Closed, u.Location)
	assert.True(t, Equal(Number(7), u.Closed))

	// Mutating the original stack slot no longer affects the upvalue.
	v = Number(99)
	assert.True(t, Equal(Number(7), *u.Location))
}

func TestObjKindsReportDistinctKinds(t *testing.T) {
	kinds := map[ObjKind]Obj{
		ObjKindString:      &ObjString{},
		ObjKindFunction:    &ObjFunction{},
		ObjKindNative:      &ObjNative{},
		ObjKindClosure:     &ObjClosure{},
		ObjKindUpvalue:     &ObjUpvalue{},
		ObjKindClass:       &ObjClass{},
		ObjKindInstance:    &ObjInstance{},
		ObjKindBoundMethod: &ObjBoundMethod{},
	}
	for want, obj := range kinds {
		assert.Equal(t, want, obj.Kind())
	}
}
