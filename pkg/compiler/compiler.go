// Package compiler implements the single-pass Pratt parser/compiler: it
// walks the token stream exactly once, emitting bytecode for "the function
// currently being compiled" as it goes, while simultaneously resolving
// lexical scope, upvalue capture, and class/super relationships. There is
// no intermediate AST — a statement or expression is bytecode the moment
// its last token is consumed.
package compiler

import (
	"fmt"
	"io"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/token"
)

// Allocator is the VM-backed subset of allocation behavior the compiler
// needs: interned string constants, Function objects, and a way to
// register in-progress Function objects as GC roots for the duration of
// compilation (an allocation triggered while compiling — interning an
// identifier, say — can itself trigger a collection, and the Function
// under construction must survive it).
type Allocator interface {
	CopyString(s string) *bytecode.ObjString
	NewFunction() *bytecode.ObjFunction
	PushCompilerRoot(fn *bytecode.ObjFunction)
	PopCompilerRoot()
}

// Precedence levels, lowest to highest (spec §4.4).
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// funcType distinguishes the four flavors of "currently compiling
// function" — they differ in slot-0 binding and return semantics.
type funcType int

const (
	typeFunction funcType = iota
	typeScript
	typeMethod
	typeInitializer
)

const maxLocals = 256
const maxUpvalues = 256
const maxParams = 255
const maxConstants = 256
const maxJump = 1 << 16

type local struct {
	name       token.Token
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   byte
	isLocal bool
}

// funcCompiler is one stack frame of "compiler contexts" (spec §4.4): the
// outer-to-inner chain mirrors the lexical nesting of function/method
// bodies being compiled.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *bytecode.ObjFunction
	typ       funcType

	locals     [maxLocals]local
	localCount int
	upvalues   [maxUpvalues]upvalueDesc
	upvalueCnt int
	scopeDepth int
}

// classCompiler tracks the enclosing class for `this`/`super` legality.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is the whole single-pass parser/compiler state for one
// compilation. It is per-compilation, not per-VM: the spec's "single
// compiler global state" note means a fresh Compiler must exist for every
// call to Compile, so concurrent VMs (or nested Compile calls) never share
// parser state.
type Compiler struct {
	scanner *token.Scanner
	alloc   Allocator
	stderr  io.Writer

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	fc    *funcCompiler
	class *classCompiler
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.Dot:          {infix: (*Compiler).dot, precedence: precCall},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: precTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: precFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: precFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: precComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: precComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.String:       {prefix: (*Compiler).stringLiteral},
		token.Number:       {prefix: (*Compiler).number},
		token.And:          {infix: (*Compiler).and_, precedence: precAnd},
		token.Or:           {infix: (*Compiler).or_, precedence: precOr},
		token.False:        {prefix: (*Compiler).literal},
		token.True:         {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
		token.This:         {prefix: (*Compiler).this_},
		token.Super:        {prefix: (*Compiler).super_},
	}
}

func (c *Compiler) rule(typ token.Type) parseRule { return rules[typ] }

// Compile parses and compiles source into a top-level Function. The
// returned bool is false (and the Function nil) if any compile error was
// reported — matching the "hadError => no function" contract of spec §4.4.
func Compile(source string, alloc Allocator, stderr io.Writer) (*bytecode.ObjFunction, bool) {
	c := &Compiler{
		scanner: token.NewScanner(source),
		alloc:   alloc,
		stderr:  stderr,
	}
	c.pushFuncCompiler(typeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if c.hadError {
		return nil, false
	}
	return fn, true
}

// --- compiler-context stack -------------------------------------------------

func (c *Compiler) pushFuncCompiler(typ funcType, name string) {
	fn := c.alloc.NewFunction()
	if name != "" {
		fn.Name = c.alloc.CopyString(name)
	}
	fc := &funcCompiler{enclosing: c.fc, function: fn, typ: typ, scopeDepth: 0}

	// Slot 0 is reserved for the VM: bound to `this` for methods and
	// initializers, nameless for plain functions and the top-level script.
	slot0 := &fc.locals[0]
	slot0.depth = 0
	if typ == typeMethod || typ == typeInitializer {
		slot0.name = token.Token{Lexeme: "this"}
	} else {
		slot0.name = token.Token{Lexeme: ""}
	}
	fc.localCount = 1

	c.fc = fc
	c.alloc.PushCompilerRoot(fn)
}

func (c *Compiler) endCompiler() *bytecode.ObjFunction {
	c.emitReturn()
	fc := c.fc
	fc.function.UpvalueCount = fc.upvalueCnt
	c.alloc.PopCompilerRoot()
	c.fc = fc.enclosing
	return fc.function
}

func (c *Compiler) currentChunk() *bytecode.Chunk { return c.fc.function.Chunk }

// --- token stream ------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(typ token.Type) bool { return c.current.Type == typ }

func (c *Compiler) match(typ token.Type) bool {
	if !c.check(typ) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(typ token.Type, message string) {
	if c.current.Type == typ {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting -----------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	locus := ""
	switch {
	case tok.Type == token.EOF:
		locus = " at end"
	case tok.Type == token.Error:
		// synthetic token: no locus
	default:
		locus = " at '" + tok.Lexeme + "'"
	}
	fmt.Fprintf(c.stderr, "[line %d] Error%s: %s\n", tok.Line, locus, message)
	c.hadError = true
}

// synchronize discards tokens until it reaches a likely statement
// boundary, clearing panic mode so later errors in the same source are
// still reported (spec §4.4 error recovery).
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- emission helpers ----------------------------------------------------

func (c *Compiler) emitByte(b byte)       { c.currentChunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op bytecode.Op) { c.currentChunk().WriteOp(op, c.previous.Line) }
func (c *Compiler) emitBytes(op bytecode.Op, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > maxJump-1 {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > maxJump-1 {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitReturn() {
	if c.fc.typ == typeInitializer {
		c.emitBytes(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v bytecode.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > maxConstants-1 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	c.emitBytes(bytecode.OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(tok token.Token) byte {
	return c.makeConstant(bytecode.FromObj(c.alloc.CopyString(tok.Lexeme)))
}

func identifiersEqual(a, b token.Token) bool { return a.Lexeme == b.Lexeme }
