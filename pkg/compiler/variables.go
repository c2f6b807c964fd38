package compiler

import (
	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/token"
)

// declareVariable registers c.previous as a new local in the current
// scope (global declarations skip this — they're resolved at runtime by
// name). The local starts "declared but uninitialized" (depth -1); it is
// only marked initialized once its initializer expression is compiled, so
// `var a = a;` in a local scope is reported as a compile error instead of
// reading the uninitialized slot.
func (c *Compiler) declareVariable() {
	if c.fc.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := c.fc.localCount - 1; i >= 0; i-- {
		l := &c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if c.fc.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	l := &c.fc.locals[c.fc.localCount]
	c.fc.localCount++
	l.name = name
	l.depth = -1
	l.isCaptured = false
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[c.fc.localCount-1].depth = c.fc.scopeDepth
}

// parseVariable consumes an identifier, declares it if we're in a local
// scope, and returns the constant-pool index to use for DEFINE_GLOBAL
// (unused for locals).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.Identifier, errMsg)
	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(bytecode.OpDefineGlobal, global)
}

// resolveLocal walks fc's locals top-down looking for name. It errors if
// the match is still in the "declared but uninitialized" state, which
// happens only when a variable's own initializer refers to itself.
func (c *Compiler) resolveLocal(fc *funcCompiler, name token.Token) int {
	for i := fc.localCount - 1; i >= 0; i-- {
		l := &fc.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively searches enclosing compiler contexts. A hit
// on an enclosing local marks it captured and records a local-backed
// upvalue; a hit on an enclosing upvalue chains through a non-local one.
// De-duplicates by (index, isLocal) so recapturing the same variable in
// several nested closures reuses one upvalue slot.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name token.Token) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, byte(local), true)
	}
	if up := c.resolveUpvalue(fc.enclosing, name); up != -1 {
		return c.addUpvalue(fc, byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	count := fc.upvalueCnt
	for i := 0; i < count; i++ {
		u := &fc.upvalues[i]
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if count == maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues[count] = upvalueDesc{index: index, isLocal: isLocal}
	fc.upvalueCnt++
	return count
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.Op
	arg := c.resolveLocal(c.fc, name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(c.fc, name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitBytes(setOp, byte(arg))
	} else {
		c.emitBytes(getOp, byte(arg))
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.previous, canAssign) }

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.Dot, "Expect '.' after 'super'.")
	c.consume(token.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(token.Token{Type: token.Identifier, Lexeme: "this"}, false)
	if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable(token.Token{Type: token.Identifier, Lexeme: "super"}, false)
		c.emitBytes(bytecode.OpSuperInvoke, name)
		c.emitByte(byte(argCount))
		return
	}
	c.namedVariable(token.Token{Type: token.Identifier, Lexeme: "super"}, false)
	c.emitBytes(bytecode.OpGetSuper, name)
}
