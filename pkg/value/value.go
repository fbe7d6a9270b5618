// Package value defines Flowim's runtime value representation: a
// closed, six-variant tagged union with value semantics (no garbage
// collector, no cycles — see spec.md's Non-goals).
package value

import "strconv"

// Kind discriminates a Value's variant.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindFun
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindFun:
		return "fun"
	default:
		return "void"
	}
}

// Fun is the payload of a KindFun value: enough to identify and call a
// function without embedding its chunk by value (see SPEC_FULL.md §3 —
// function bodies live once in the owning chunk's FunctionTable;
// constant-pool/Value entries only carry the index).
type Fun struct {
	Name          string
	Arity         int
	FunctionIndex int
	// Native is the natives-table index for a native function, or -1
	// for an ordinary user-defined function. See pkg/natives.
	Native int
}

// Value is Flowim's tagged union. Exactly one of the payload fields is
// meaningful, selected by Kind; this mirrors the source language's
// `enum Value { Void, Bool(bool), Int(isize), Float(f64), Str(String),
// Fun(Function) }` without requiring a boxed interface for the common
// scalar cases.
type Value struct {
	Kind Kind
	B    bool
	I    int
	F    float64
	S    string
	Fn   Fun
}

func Void() Value           { return Value{Kind: KindVoid} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }
func Int(i int) Value       { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Str(s string) Value    { return Value{Kind: KindStr, S: s} }
func FunValue(fn Fun) Value { return Value{Kind: KindFun, Fn: fn} }

// TypeName is the name used in error messages for value's variant.
func TypeName(v Value) string {
	return v.Kind.String()
}

// Falsy reports whether v is the language's single falsy value:
// exactly Bool(false). Everything else — including 0, 0.0, "", and
// Void — is truthy.
func Falsy(v Value) bool {
	return v.Kind == KindBool && !v.B
}

// Equal is Flowim's structural equality: values of different Kind are
// never equal, never a runtime error.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindVoid:
		return true
	case KindBool:
		return a.B == b.B
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindStr:
		return a.S == b.S
	case KindFun:
		return a.Fn == b.Fn
	default:
		return false
	}
}

// String renders v the way `print` displays it: booleans and integers
// in natural form, floats with integral magnitude get a trailing
// ".0", strings unquoted, functions as "<fun NAME>", void as "void".
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.Itoa(v.I)
	case KindFloat:
		if v.F == float64(int64(v.F)) {
			return strconv.FormatFloat(v.F, 'f', 1, 64)
		}
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindStr:
		return v.S
	case KindFun:
		return "<fun " + v.Fn.Name + ">"
	default:
		return "void"
	}
}
