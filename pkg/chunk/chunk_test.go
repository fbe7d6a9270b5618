package chunk

import (
	"strings"
	"testing"

	"github.com/TenType/flowim/pkg/value"
)

func TestWriteTracksLinesInParallel(t *testing.T) {
	c := New()
	c.Write(Constant, 0, 1)
	c.Write(Return, 0, 2)

	if len(c.Code) != len(c.Lines) {
		t.Fatalf("code.length (%d) != lines.length (%d)", len(c.Code), len(c.Lines))
	}
	if c.Lines[0] != 1 || c.Lines[1] != 2 {
		t.Fatalf("unexpected line table: %v", c.Lines)
	}
}

func TestAddConstantIsAppendOnly(t *testing.T) {
	c := New()
	i0 := c.AddConstant(value.Int(1))
	i1 := c.AddConstant(value.Int(2))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("expected sequential indices 0,1, got %d,%d", i0, i1)
	}
	if len(c.Constants) != 2 {
		t.Fatalf("expected 2 constants, got %d", len(c.Constants))
	}
}

func TestPatchOperandRewritesInPlace(t *testing.T) {
	c := New()
	idx := c.Write(JumpIfFalse, 0, 1)
	c.Write(Return, 0, 1)
	c.PatchOperand(idx, 1)
	if c.Code[idx].Operand != 1 {
		t.Fatalf("expected patched operand 1, got %d", c.Code[idx].Operand)
	}
}

func TestDisassembleContainsEveryInstruction(t *testing.T) {
	c := New()
	c.Name = "<script>"
	k := c.AddConstant(value.Int(7))
	c.Write(Constant, k, 1)
	c.Write(Print, 0, 1)
	c.Write(Return, 0, 1)

	out := c.Disassemble(c.Name)
	for _, want := range []string{"CONSTANT", "PRINT", "RETURN", "7"} {
		if !strings.Contains(out, want) {
			t.Fatalf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestAddFunctionReturnsFlatIndex(t *testing.T) {
	root := New()
	fn1 := New()
	fn2 := New()
	if idx := root.AddFunction(fn1); idx != 0 {
		t.Fatalf("expected index 0, got %d", idx)
	}
	if idx := root.AddFunction(fn2); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if len(root.FunctionTable) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(root.FunctionTable))
	}
}
