// Command flowim is Flowim's REPL and file runner — the external
// collaborator spec.md §1 explicitly keeps out of the core's scope.
// Zero arguments starts the REPL; one argument runs that file as a
// script; anything else is a usage error. See spec.md §6's exit codes.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/TenType/flowim/pkg/compiler"
	"github.com/TenType/flowim/pkg/flowim"
	"github.com/TenType/flowim/pkg/vm"
)

const (
	exitSuccess     = 0
	exitUsage       = 64
	exitCompileFail = 65
	exitRuntimeFail = 70
)

func main() {
	// .env is optional; a missing file is not an error (teacher's
	// cmd/flowa/main.go treats it the same way, see SPEC_FULL.md §D).
	_ = godotenv.Load()

	switch len(os.Args) {
	case 1:
		repl()
	case 2:
		runFile(os.Args[1])
	default:
		fmt.Fprintln(os.Stderr, "Usage: flowim [script]")
		os.Exit(exitUsage)
	}
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(exitUsage)
	}

	rt := flowim.New()
	if err := rt.Run(string(source), os.Stdout); err != nil {
		reportError(err)
	}
}

// repl reads one line at a time, running each against the same
// Runtime so globals persist across lines (spec.md §5).
func repl() {
	rt := flowim.New()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Flowim REPL — Ctrl+D to exit")
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := rt.Run(line, os.Stdout); err != nil {
			printError(err)
		}
	}
}

// reportError prints err and exits with the status spec.md §6 assigns
// to its kind; repl() uses printError instead so a bad line doesn't
// kill the session.
func reportError(err error) {
	printError(err)
	switch err.(type) {
	case *compiler.Error:
		os.Exit(exitCompileFail)
	case *vm.RuntimeError:
		os.Exit(exitRuntimeFail)
	default:
		os.Exit(exitRuntimeFail)
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, err)
}
