package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TenType/flowim/pkg/compiler"
	"github.com/TenType/flowim/pkg/value"
)

// run compiles src and executes it, returning everything it printed.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	top, err := compiler.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) returned error: %s", src, err)
	}
	var out bytes.Buffer
	machine := New(&out, map[string]value.Value{}, nil)
	err = machine.Run(top)
	return out.String(), err
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print 1 + 2 * 3", "7\n"},
		{"var a = 10\nvar b = 20\nprint a + b", "30\n"},
		{"var i = 0\nwhile i < 3\n  print i\n  i = i + 1\nend", "0\n1\n2\n"},
		{"fn add(a, b)\n  return a + b\nend\nprint add(2, 3)", "5\n"},
		{"fn fib(n)\n  if n < 2\n    return n\n  end\n  return fib(n-1) + fib(n-2)\nend\nprint fib(10)", "55\n"},
		{`print "foo" + "bar"`, "foobar\n"},
	}
	for _, tt := range tests {
		got, err := run(t, tt.src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %s", tt.src, err)
		}
		if got != tt.want {
			t.Fatalf("%q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, "print 1 / 0")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Division by zero") {
		t.Fatalf("expected 'Division by zero', got %q", err.Error())
	}
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, err := run(t, "print x")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "`x` is not defined") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestSetGlobalMustPreExist(t *testing.T) {
	_, err := run(t, "x = 1")
	if err == nil {
		t.Fatalf("expected a runtime error assigning to an undeclared global")
	}
}

func TestForLoop(t *testing.T) {
	got, err := run(t, "for var i = 0; i < 3; i = i + 1\n  print i\nend")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "0\n1\n2\n" {
		t.Fatalf("got %q", got)
	}
}

// TestForLoopMissingStep guards against the step expression being
// parsed unconditionally: the body's first statement (print, with no
// prefix parse rule) must not be mistaken for a step clause.
func TestForLoopMissingStep(t *testing.T) {
	got, err := run(t, "for var i = 0; i < 3;\n  print i\n  i = i + 1\nend")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "0\n1\n2\n" {
		t.Fatalf("got %q", got)
	}
}

// TestForLoopMissingCond guards against a var-style initializer's
// delimiter-eating swallowing the for-header's own cond-terminating
// semicolon, which would otherwise misparse the step as the condition.
// The loop only exits via return, so it's wrapped in a function.
func TestForLoopMissingCond(t *testing.T) {
	src := `fn loopy()
  for var i = 0;; i = i + 1
    if i >= 3
      return i
    end
  end
end
print loopy()`
	got, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

// TestForLoopMissingBoth guards the fully-omitted cond/step header.
func TestForLoopMissingBoth(t *testing.T) {
	src := `fn loopy()
  var i = 0
  for ;;
    if i >= 3
      return i
    end
    i = i + 1
  end
end
print loopy()`
	got, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

// TestTopLevelScopedLocalDoesNotPanic guards the VM's slot-0 seeding:
// a top-level do-block local must resolve at stack[1], not stack[0],
// exactly like a local declared inside a function frame.
func TestTopLevelScopedLocalDoesNotPanic(t *testing.T) {
	got, err := run(t, "do\n  var x = 1\n  print x\nend")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "1\n" {
		t.Fatalf("got %q", got)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	got, err := run(t, "fn boom()\n  print \"boom\"\n  return true\nend\nprint false and boom()")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "false\n" {
		t.Fatalf("rhs should not have evaluated, got %q", got)
	}
}

func TestShortCircuitOr(t *testing.T) {
	got, err := run(t, "fn boom()\n  print \"boom\"\n  return true\nend\nprint true or boom()")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "true\n" {
		t.Fatalf("rhs should not have evaluated, got %q", got)
	}
}

func TestMixedIntFloatPromotion(t *testing.T) {
	got, err := run(t, "print 1 + 2.5")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "3.5\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEqualityAcrossTypesIsFalseNotError(t *testing.T) {
	got, err := run(t, `print 1 == "1"`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "false\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCallArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, "fn add(a, b)\n  return a + b\nend\nprint add(1)")
	if err == nil {
		t.Fatalf("expected a runtime error for arity mismatch")
	}
}

func TestRecursionDeepEnoughHitsFrameLimit(t *testing.T) {
	src := "fn rec(n)\n  return rec(n + 1)\nend\nprint rec(0)"
	_, err := run(t, src)
	if err == nil {
		t.Fatalf("expected call stack limit error")
	}
	if !strings.Contains(err.Error(), "Call stack limit exceeded") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

// TestNestedFunctionCallResolvesThroughFlatFunctionTable guards against
// resolving a call's callee chunk via the *calling* frame's own
// FunctionTable (which would only hold the outer function's own
// directly-nested declarations, not a sibling/ancestor's). Every
// function body lives in one flat table rooted at the script chunk
// (spec.md §9's "flat table indexed by id"), so a function declared
// inside another function must still be callable from deep inside a
// call chain.
func TestNestedFunctionCallResolvesThroughFlatFunctionTable(t *testing.T) {
	src := `fn outer()
  fn inner(x)
    return x + 1
  end
  return inner(41)
end
print outer()`
	got, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != "42\n" {
		t.Fatalf("got %q, want %q", got, "42\n")
	}
}
