// Package natives lists the host functions exposed to interpreted source.
// Kept separate from pkg/vm so the registration list — and the Non-goal
// that bounds it to a single entry — stays visible without reading the
// interpreter's call machinery.
package natives

import (
	"time"

	"github.com/kristofer/lox/pkg/bytecode"
)

// Native pairs a global name with the Go function that implements it.
type Native struct {
	Name string
	Fn   bytecode.NativeFn
}

var processStart = time.Now()

// All returns every native to register into a fresh VM's globals. clock is
// the only one: no filesystem, network, or OS access is exposed to
// interpreted source.
func All() []Native {
	return []Native{
		{Name: "clock", Fn: clock},
	}
}

func clock(argCount int, args []bytecode.Value) bytecode.Value {
	return bytecode.Number(time.Since(processStart).Seconds())
}
