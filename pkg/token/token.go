// Package token defines the lexical tokens produced by pkg/lexer and
// consumed directly by pkg/compiler.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Error Kind = iota
	Eof

	// Punctuation
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Plus
	Minus
	Semicolon
	Slash
	Star
	Newline

	// One- or two-char operators
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals
	Identifier
	Str
	Int
	Float
	Bool

	// Keywords
	Or
	And
	Not
	If
	Else
	While
	For
	Var
	Let
	Fn
	Return
	Class
	Super
	SelfKw
	Print
	Do
	End
)

var names = map[Kind]string{
	Error: "Error", Eof: "Eof",
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Plus: "+", Minus: "-", Semicolon: ";",
	Slash: "/", Star: "*", Newline: "\\n",
	Bang: "!", BangEqual: "!=", Equal: "=", EqualEqual: "==",
	Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
	Identifier: "identifier", Str: "string", Int: "int", Float: "float", Bool: "bool",
	Or: "or", And: "and", Not: "not", If: "if", Else: "else",
	While: "while", For: "for", Var: "var", Let: "let", Fn: "fn",
	Return: "return", Class: "class", Super: "super", SelfKw: "self",
	Print: "print", Do: "do", End: "end",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit: its kind, the source text it came
// from, and the 1-based source line it starts on.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Lexeme, t.Line)
}

// keywords maps reserved identifiers to their token kind. true and
// false both map to the Bool kind; which of the two it is stays in the
// token's lexeme.
var keywords = map[string]Kind{
	"or": Or, "and": And, "not": Not,
	"if": If, "else": Else, "while": While, "for": For,
	"var": Var, "let": Let, "fn": Fn, "return": Return,
	"class": Class, "super": Super, "self": SelfKw,
	"print": Print, "do": Do, "end": End,
	"true": Bool, "false": Bool,
}

// LookupIdent reports the keyword Kind for ident, or Identifier if
// ident is not reserved.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return Identifier
}
