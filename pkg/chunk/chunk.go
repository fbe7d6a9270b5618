// Package chunk holds the bytecode representation Flowim's compiler
// emits and its VM executes: a code buffer, a constant pool, a
// parallel line table, and a flat table of compiled function bodies.
package chunk

import (
	"fmt"
	"strings"

	"github.com/TenType/flowim/pkg/value"
)

// Chunk is one function's compiled code: code.length == lines.length,
// constants are append-only, and indices embedded in instructions are
// always valid positions in the arrays of this same chunk (spec.md §3).
type Chunk struct {
	Code      []Instruction
	Lines     []int
	Constants []value.Value

	// FunctionTable holds the chunks of nested function declarations,
	// indexed by value.Fun.FunctionIndex — see SPEC_FULL.md §3: a
	// function's body lives once here, not cloned into every
	// constant-pool entry that references it.
	FunctionTable []*Chunk

	// Name and Arity mirror the value.Fun this chunk belongs to. Kept
	// directly on the chunk (rather than looked up through a Fun
	// value) so disassembly and the script's own frame can name the
	// chunk, and a native's NativeCall can read its arity, with no Fun
	// value at hand.
	Name  string
	Arity int
}

// New returns an empty chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends an instruction at the given source line and returns
// its index in Code.
func (c *Chunk) Write(op Op, operand int, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, Operand: operand})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// AddFunction appends fn's chunk to FunctionTable and returns its
// index, for use as a value.Fun.FunctionIndex.
func (c *Chunk) AddFunction(fn *Chunk) int {
	c.FunctionTable = append(c.FunctionTable, fn)
	return len(c.FunctionTable) - 1
}

// PatchOperand rewrites the operand of the instruction at index — the
// one place a chunk is mutated out of order, reserved for the
// jump-patching protocol in pkg/compiler.
func (c *Chunk) PatchOperand(index, operand int) {
	c.Code[index].Operand = operand
}

// Disassemble renders the chunk's instructions for debugging, in the
// teacher's "offset  line  NAME  operand" layout.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for i := range c.Code {
		c.disassembleInstruction(&b, i)
	}
	return b.String()
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, i int) {
	fmt.Fprintf(b, "%04d ", i)
	if i > 0 && c.Lines[i] == c.Lines[i-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[i])
	}

	in := c.Code[i]
	switch in.Op {
	case Constant, DefineGlobal, GetGlobal, SetGlobal:
		fmt.Fprintf(b, "%-14s %4d '%s'\n", in.Op, in.Operand, c.constantRepr(in.Operand))
	case Jump, JumpIfFalse:
		fmt.Fprintf(b, "%-14s %4d -> %d\n", in.Op, in.Operand, i+1+in.Operand)
	case JumpBack:
		fmt.Fprintf(b, "%-14s %4d -> %d\n", in.Op, in.Operand, i+1-in.Operand)
	case GetLocal, SetLocal, Call, NativeCall:
		fmt.Fprintf(b, "%-14s %4d\n", in.Op, in.Operand)
	default:
		fmt.Fprintf(b, "%s\n", in.Op)
	}
}

func (c *Chunk) constantRepr(index int) string {
	if index < 0 || index >= len(c.Constants) {
		return "?"
	}
	return c.Constants[index].String()
}
