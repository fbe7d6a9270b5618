// Package flowim is the thin facade gluing pkg/lexer (via pkg/compiler),
// pkg/compiler, and pkg/vm into the single entry point cmd/flowim
// calls (cmd/flowimc only compiles, through pkg/compiler directly) —
// the same lex/parse/compile/run composition the teacher's
// cmd/flowa/main.go performs inline, pulled out so both the REPL and
// the file runner share it. See spec.md §2's data flow and
// §5's "globals flow between REPL iterations by value handoff".
package flowim

import (
	"io"

	"github.com/TenType/flowim/pkg/compiler"
	"github.com/TenType/flowim/pkg/natives"
	"github.com/TenType/flowim/pkg/value"
	"github.com/TenType/flowim/pkg/vm"
)

// Runtime owns one VM's worth of persistent state: the global table
// and the natives registry it was built against. A fresh Runtime
// starts with pkg/natives' library-backed globals already installed;
// successive Run calls accumulate user-defined globals on top, the
// way a REPL session does.
type Runtime struct {
	globals map[string]value.Value
	natives []vm.NativeEntry
}

// New returns a Runtime whose global table is pre-populated with
// every native in pkg/natives (SPEC_FULL.md §D).
func New() *Runtime {
	globals, entries := natives.Build()
	return &Runtime{globals: globals, natives: entries}
}

// Globals exposes the current global table, e.g. for a REPL to
// display state between lines.
func (r *Runtime) Globals() map[string]value.Value {
	return r.globals
}

// Run compiles source and executes it against the Runtime's current
// globals, writing any `print`ed output to out. On success the
// Runtime's globals are updated in place so a later Run call on the
// same Runtime sees them — the REPL's carry-globals-across-lines
// contract (spec.md §5).
func (r *Runtime) Run(source string, out io.Writer) error {
	top, err := compiler.Compile(source)
	if err != nil {
		return err
	}

	machine := vm.New(out, r.globals, r.natives)
	if err := machine.Run(top); err != nil {
		return err
	}
	r.globals = machine.Globals()
	return nil
}
