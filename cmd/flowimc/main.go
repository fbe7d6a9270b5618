// Command flowimc compiles a Flowim script and prints its disassembly
// without running it — spec.md §1 keeps "debug disassembly formatting"
// out of the core's scope, so it lives here, alongside the teacher's
// own cmd/flowac and cmd/debug_bytecode split between compile-only and
// disassemble-only tools.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/TenType/flowim/pkg/chunk"
	"github.com/TenType/flowim/pkg/compiler"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: flowimc <script>")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(64)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(64)
	}

	top, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(65)
	}

	printChunk(top)
}

// printChunk disassembles top, then every nested function body in its
// flat FunctionTable (spec.md §9's design note — function chunks live
// once in the top-level chunk's table, not re-nested per declaration).
func printChunk(top *chunk.Chunk) {
	fmt.Print(top.Disassemble(top.Name))
	for _, fn := range top.FunctionTable {
		fmt.Println()
		fmt.Print(fn.Disassemble(fn.Name))
	}
}
