package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/lox/pkg/bytecode"
)

// fakeAllocator is a minimal Allocator good enough to drive the compiler in
// isolation: it interns strings in a plain map (no hashing/GC concerns) and
// tracks compiler roots only so PushCompilerRoot/PopCompilerRoot balance.
type fakeAllocator struct {
	interned map[string]*bytecode.ObjString
	roots    []*bytecode.ObjFunction
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{interned: make(map[string]*bytecode.ObjString)}
}

func (a *fakeAllocator) CopyString(s string) *bytecode.ObjString {
	if str, ok := a.interned[s]; ok {
		return str
	}
	str := &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
	a.interned[s] = str
	return str
}

func (a *fakeAllocator) NewFunction() *bytecode.ObjFunction {
	return &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
}

func (a *fakeAllocator) PushCompilerRoot(fn *bytecode.ObjFunction) { a.roots = append(a.roots, fn) }
func (a *fakeAllocator) PopCompilerRoot()                          { a.roots = a.roots[:len(a.roots)-1] }

func compileOK(t *testing.T, source string) *bytecode.ObjFunction {
	t.Helper()
	var stderr bytes.Buffer
	fn, ok := Compile(source, newFakeAllocator(), &stderr)
	require.True(t, ok, "expected compile success, stderr: %s", stderr.String())
	return fn
}

func TestCompileArithmeticExpression(t *testing.T) {
	fn := compileOK(t, "print 1 + 2 * 3;")
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpAdd))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpMultiply))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpPrint))
}

func TestCompileVarDeclarationAndGlobalAccess(t *testing.T) {
	fn := compileOK(t, "var x = 10; print x;")
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpDefineGlobal))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpGetGlobal))
}

func TestCompileLocalsUseGetSetLocal(t *testing.T) {
	fn := compileOK(t, "{ var x = 1; x = 2; print x; }")
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpSetLocal))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpGetLocal))
}

func TestCompileFunctionEmitsClosure(t *testing.T) {
	fn := compileOK(t, "fun f(a, b) { return a + b; } f(1, 2);")
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpClosure))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpCall))
}

func TestCompileClassEmitsClassAndMethod(t *testing.T) {
	fn := compileOK(t, `
		class Greeter {
			greet() { print "hi"; }
		}
		var g = Greeter();
		g.greet();
	`)
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpClass))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpMethod))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpInvoke))
}

func TestCompileInheritanceEmitsInherit(t *testing.T) {
	fn := compileOK(t, `
		class A { f() { return 1; } }
		class B < A { g() { return super.f(); } }
	`)
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpInherit))
	assert.Contains(t, fn.Chunk.Code, byte(bytecode.OpSuperInvoke))
}

func TestCompileErrorUnexpectedToken(t *testing.T) {
	var stderr bytes.Buffer
	_, ok := Compile("var = 1;", newFakeAllocator(), &stderr)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "Error")
}

func TestCompileErrorReturnFromTopLevel(t *testing.T) {
	var stderr bytes.Buffer
	_, ok := Compile("return 1;", newFakeAllocator(), &stderr)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "Can't return from top-level code.")
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	var stderr bytes.Buffer
	_, ok := Compile("1 + 2 = 3;", newFakeAllocator(), &stderr)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "Invalid assignment target.")
}

func TestCompileErrorThisOutsideClass(t *testing.T) {
	var stderr bytes.Buffer
	_, ok := Compile("print this;", newFakeAllocator(), &stderr)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "Can't use 'this' outside of a class.")
}

func TestCompileRecoversAfterErrorViaSynchronize(t *testing.T) {
	var stderr bytes.Buffer
	_, ok := Compile("var = 1; var y = 2;", newFakeAllocator(), &stderr)
	assert.False(t, ok, "the whole compilation still fails")
	// Only one diagnostic: synchronize resumed cleanly at the next statement.
	assert.Equal(t, 1, bytes.Count(stderr.Bytes(), []byte("[line")))
}
