package lexer

import (
	"testing"

	"github.com/TenType/flowim/pkg/token"
)

func TestNextToken(t *testing.T) {
	input := `var x = 10
if x < 20 then
	print "hi" // comment
end`

	tests := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.Var, "var"},
		{token.Identifier, "x"},
		{token.Equal, "="},
		{token.Int, "10"},
		{token.Newline, "\\n"},
		{token.If, "if"},
		{token.Identifier, "x"},
		{token.Less, "<"},
		{token.Int, "20"},
		{token.Identifier, "then"},
		{token.Newline, "\\n"},
		{token.Print, "print"},
		{token.Str, "hi"},
		{token.Newline, "\\n"},
		{token.End, "end"},
		{token.Eof, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("test[%d] - kind wrong. got=%s, want=%s", i, tok.Kind, tt.kind)
		}
		if tok.Lexeme != tt.lexeme {
			t.Fatalf("test[%d] - lexeme wrong. got=%q, want=%q", i, tok.Lexeme, tt.lexeme)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"never closed`)
	tok := l.NextToken()
	if tok.Kind != token.Error {
		t.Fatalf("expected Error token, got %s", tok.Kind)
	}
}

func TestFloatVsInt(t *testing.T) {
	l := New("1 1.5 1.")
	if tok := l.NextToken(); tok.Kind != token.Int {
		t.Fatalf("expected Int, got %s", tok.Kind)
	}
	if tok := l.NextToken(); tok.Kind != token.Float || tok.Lexeme != "1.5" {
		t.Fatalf("expected Float 1.5, got %s %q", tok.Kind, tok.Lexeme)
	}
	// "1." with no digit after the dot is an Int followed by a Dot.
	if tok := l.NextToken(); tok.Kind != token.Int || tok.Lexeme != "1" {
		t.Fatalf("expected Int 1, got %s %q", tok.Kind, tok.Lexeme)
	}
	if tok := l.NextToken(); tok.Kind != token.Dot {
		t.Fatalf("expected Dot, got %s", tok.Kind)
	}
}
