package table

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/lox/pkg/bytecode"
)

func key(s string) *bytecode.ObjString {
	return &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
}

func TestSetAndGet(t *testing.T) {
	tab := New()
	k := key("x")

	isNew := tab.Set(k, bytecode.Number(1))
	assert.True(t, isNew)

	v, ok := tab.Get(k)
	assert.True(t, ok)
	assert.True(t, bytecode.Equal(bytecode.Number(1), v))

	isNew = tab.Set(k, bytecode.Number(2))
	assert.False(t, isNew, "re-setting an existing key is not a new entry")
	v, _ = tab.Get(k)
	assert.True(t, bytecode.Equal(bytecode.Number(2), v))
}

func TestGetMissing(t *testing.T) {
	tab := New()
	_, ok := tab.Get(key("missing"))
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	tab := New()
	k := key("x")
	tab.Set(k, bytecode.Number(1))

	assert.True(t, tab.Delete(k))
	_, ok := tab.Get(k)
	assert.False(t, ok)
	assert.False(t, tab.Delete(k), "deleting twice reports not-found the second time")
}

func TestGrowthAcrossManyEntries(t *testing.T) {
	tab := New()
	const n = 200
	keys := make([]*bytecode.ObjString, n)
	for i := 0; i < n; i++ {
		k := key(string(rune('a')) + string(rune(i)))
		keys[i] = k
		tab.Set(k, bytecode.Number(float64(i)))
	}
	for i, k := range keys {
		v, ok := tab.Get(k)
		assert.True(t, ok)
		assert.True(t, bytecode.Equal(bytecode.Number(float64(i)), v))
	}
}

func TestAddAllTo(t *testing.T) {
	// Keys are interned in real use, so the same key object is shared here.
	a, b := key("a"), key("b")
	src := New()
	src.Set(a, bytecode.Number(1))
	src.Set(b, bytecode.Number(2))

	dst := New()
	dst.Set(b, bytecode.Number(99))
	src.AddAllTo(dst)

	v, _ := dst.Get(b)
	assert.True(t, bytecode.Equal(bytecode.Number(2), v), "AddAllTo overwrites existing keys in dst")
	_, ok := dst.Get(a)
	assert.True(t, ok)
}

func TestFindString(t *testing.T) {
	tab := New()
	k := key("shared")
	tab.Set(k, bytecode.Nil())

	found := tab.FindString("shared", bytecode.HashString("shared"))
	assert.Same(t, k, found)

	assert.Nil(t, tab.FindString("absent", bytecode.HashString("absent")))
}

func TestRemoveWhiteClearsUnmarkedKeys(t *testing.T) {
	tab := New()
	marked := key("keep")
	marked.Marked = true
	unmarked := key("drop")

	tab.Set(marked, bytecode.Nil())
	tab.Set(unmarked, bytecode.Nil())

	tab.RemoveWhite()

	_, ok := tab.Get(marked)
	assert.True(t, ok)
	_, ok = tab.Get(unmarked)
	assert.False(t, ok)
}

func TestForEachVisitsEveryEntry(t *testing.T) {
	tab := New()
	tab.Set(key("a"), bytecode.Number(1))
	tab.Set(key("b"), bytecode.Number(2))

	seen := map[string]bool{}
	tab.ForEach(func(k *bytecode.ObjString, v bytecode.Value) {
		seen[k.Chars] = true
	})
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}
