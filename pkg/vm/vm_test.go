package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string, opts ...Option) (stdout, stderr string, result InterpretResult) {
	t.Helper()
	var out, errBuf bytes.Buffer
	opts = append([]Option{WithStdout(&out), WithStderr(&errBuf)}, opts...)
	interp := New(opts...)
	result = interp.Interpret(source)
	return out.String(), errBuf.String(), result
}

func TestArithmeticPrecedence(t *testing.T) {
	out, stderr, res := run(t, "print 1 + 2 * 3;")
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, stderr, res := run(t, `print "foo" + "bar";`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "foobar\n", out)
}

func TestGlobalAndLocalVariables(t *testing.T) {
	out, stderr, res := run(t, `
		var x = 1;
		{
			var x = 2;
			print x;
		}
		print x;
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "2\n1\n", out)
}

func TestControlFlowAndLoop(t *testing.T) {
	out, stderr, res := run(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "10\n", out)
}

func TestFibonacciRecursive(t *testing.T) {
	out, stderr, res := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "55\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out, stderr, res := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestClassesInheritanceAndSuper(t *testing.T) {
	out, stderr, res := run(t, `
		class Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				return "...";
			}
			describe() {
				return this.name + " says " + this.speak();
			}
		}
		class Dog < Animal {
			speak() {
				return "Woof";
			}
			describe() {
				return super.describe() + "!";
			}
		}
		var d = Dog("Rex");
		print d.describe();
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "Rex says Woof!\n", out)
}

func TestInitializerReturnsThisImplicitly(t *testing.T) {
	out, stderr, res := run(t, `
		class Box {
			init(v) { this.v = v; }
		}
		var b = Box(5);
		print b.v;
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "5\n", out)
}

func TestRuntimeErrorTypeMismatch(t *testing.T) {
	_, stderr, res := run(t, `print 1 + "a";`)
	assert.Equal(t, InterpretRuntimeError, res)
	assert.Contains(t, stderr, "Operands must be two numbers or two strings.")
	assert.Contains(t, stderr, "[line 1] in script")
}

func TestRuntimeErrorUndefinedGlobal(t *testing.T) {
	_, stderr, res := run(t, `print undefinedThing;`)
	assert.Equal(t, InterpretRuntimeError, res)
	assert.Contains(t, stderr, "Undefined variable 'undefinedThing'.")
}

func TestRuntimeErrorStackOverflow(t *testing.T) {
	_, stderr, res := run(t, `
		fun recurse() {
			return recurse();
		}
		recurse();
	`)
	assert.Equal(t, InterpretRuntimeError, res)
	assert.Contains(t, stderr, "Stack overflow.")
}

func TestCompileErrorReportedAndDoesNotRun(t *testing.T) {
	out, stderr, res := run(t, `print ;`)
	assert.Equal(t, InterpretCompileError, res)
	assert.Equal(t, "", out)
	assert.Contains(t, stderr, "Error")
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, stderr, res := run(t, `
		var t = clock();
		print t >= 0;
	`)
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "true\n", out)
}

func TestStressGCDoesNotCorruptExecution(t *testing.T) {
	out, stderr, res := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(12);
	`, WithStressGC(true))
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "144\n", out)
}

func TestStressGCSurvivesNilConcreteObjRoots(t *testing.T) {
	// WithStressGC collects before every allocation, so this exercises the
	// exact shapes that previously panicked on a typed-nil Obj reaching
	// GetHeader(): a collection triggered from within New() itself (when
	// initString is still nil), the top-level script function (whose Name
	// is always nil), and a closure captured mid-construction (whose
	// Upvalues slots start nil before OP_CLOSURE fills them in).
	out, stderr, res := run(t, `
		class Counter {
			init() { this.count = 0; }
			increment() {
				fun bump() {
					this.count = this.count + 1;
					return this.count;
				}
				return bump();
			}
		}
		var c = Counter();
		print c.increment();
		print c.increment();
		print c.increment();
	`, WithStressGC(true))
	require.Equal(t, InterpretOK, res, stderr)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestTraceExecutionWritesToStderr(t *testing.T) {
	_, stderr, res := run(t, `print 1;`, WithTraceExecution(true))
	require.Equal(t, InterpretOK, res)
	assert.True(t, strings.Contains(stderr, "OP_PRINT") || strings.Contains(stderr, "OP_RETURN"))
}

func TestVMInstancesAreIndependent(t *testing.T) {
	var out1, out2, errBuf bytes.Buffer
	a := New(WithStdout(&out1), WithStderr(&errBuf))
	b := New(WithStdout(&out2), WithStderr(&errBuf))

	a.Interpret("var x = 1; print x;")
	b.Interpret("var x = 2; print x;")

	assert.Equal(t, "1\n", out1.String())
	assert.Equal(t, "2\n", out2.String())
}
