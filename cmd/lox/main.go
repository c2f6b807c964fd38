// Command lox is the interpreter's entry point: run a script file, or drop
// into an interactive REPL when invoked with no arguments.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kristofer/lox/pkg/debug"
	"github.com/kristofer/lox/pkg/vm"
)

const exitUsage = 64
const exitCompileError = 65
const exitRuntimeError = 70
const exitIOError = 74

func main() {
	trace := flag.Bool("trace", false, "log each instruction and the value stack before it executes")
	stressGC := flag.Bool("stress-gc", false, "collect garbage before every allocation")
	disassemble := flag.Bool("disassemble", false, "print bytecode disassembly instead of running it")
	verbose := flag.Bool("verbose", false, "log VM lifecycle events (GC cycles) to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lox [-trace] [-stress-gc] [-disassemble] [-verbose] [script]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(exitUsage)
	}

	opts := []vm.Option{vm.WithTraceExecution(*trace), vm.WithStressGC(*stressGC)}
	if *verbose {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, vm.WithLogger(logger))
	}

	if flag.NArg() == 0 {
		if *disassemble {
			flag.Usage()
			os.Exit(exitUsage)
		}
		runPrompt(opts)
		return
	}

	if *disassemble {
		disassembleFile(flag.Arg(0), opts)
		return
	}
	runFile(flag.Arg(0), opts)
}

func runFile(path string, opts []vm.Option) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.Wrapf(err, "reading %q", path))
		os.Exit(exitIOError)
	}

	interp := vm.New(opts...)
	switch interp.Interpret(string(source)) {
	case vm.InterpretCompileError:
		os.Exit(exitCompileError)
	case vm.InterpretRuntimeError:
		os.Exit(exitRuntimeError)
	}
}

func disassembleFile(path string, opts []vm.Option) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.Wrapf(err, "reading %q", path))
		os.Exit(exitIOError)
	}

	interp := vm.New(opts...)
	fn, ok := interp.Compile(string(source))
	if !ok {
		os.Exit(exitCompileError)
	}
	debug.DisassembleFunction(fn, os.Stdout)
}

// runPrompt drives an interactive REPL. Each line runs against the same VM
// instance, so globals declared in one line persist into the next; the
// VM's own runtime-error recovery (resetStack) keeps a bad line from
// aborting the session.
func runPrompt(opts []vm.Option) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFilePath(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.Wrap(err, "starting REPL"))
		os.Exit(exitIOError)
	}
	defer rl.Close()

	interp := vm.New(opts...)
	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, pkgerrors.Wrap(err, "reading input"))
			os.Exit(exitIOError)
		}
		if line == "" {
			continue
		}
		interp.Interpret(line)
	}
}

// historyFilePath returns a REPL history file under the user's home
// directory, or "" (readline disables history) if it can't be determined.
func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.lox_history"
}
