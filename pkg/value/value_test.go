package value

import "testing"

func TestStringFormatting(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Void(), "void"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(42), "42"},
		{Int(-7), "-7"},
		{Float(3.0), "3.0"},
		{Float(3.5), "3.5"},
		{Str("hi"), "hi"},
		{FunValue(Fun{Name: "add"}), "<fun add>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFalsy(t *testing.T) {
	falsy := []Value{Bool(false)}
	truthy := []Value{Bool(true), Void(), Int(0), Float(0), Str(""), FunValue(Fun{})}

	for _, v := range falsy {
		if !Falsy(v) {
			t.Errorf("expected %+v to be falsy", v)
		}
	}
	for _, v := range truthy {
		if Falsy(v) {
			t.Errorf("expected %+v to be truthy", v)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Int(1), Int(1)) {
		t.Error("Int(1) should equal Int(1)")
	}
	if Equal(Int(1), Float(1)) {
		t.Error("Int(1) should not equal Float(1): different Kind, never a runtime error")
	}
	if Equal(Str("a"), Str("b")) {
		t.Error("different strings should not be equal")
	}
	if !Equal(Void(), Void()) {
		t.Error("Void() should equal Void()")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Void(), "void"}, {Bool(true), "bool"}, {Int(1), "int"},
		{Float(1), "float"}, {Str(""), "str"}, {FunValue(Fun{}), "fun"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.v); got != tt.want {
			t.Errorf("TypeName(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
