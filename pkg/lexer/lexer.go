// Package lexer turns Flowim source text into a stream of tokens for
// pkg/compiler. It has no dependency on the compiler: NextToken can be
// called in a loop to completely tokenize a source string.
package lexer

import (
	"strings"

	"github.com/TenType/flowim/pkg/token"
)

// Lexer scans a source string one byte at a time, byte.
type Lexer struct {
	src  string
	pos  int // current position (byte offset of l.ch)
	read int // next position to read
	ch   byte
	line int
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.read >= len(l.src) {
		l.ch = 0
	} else {
		l.ch = l.src[l.read]
	}
	l.pos = l.read
	l.read++
}

func (l *Lexer) peekChar() byte {
	if l.read >= len(l.src) {
		return 0
	}
	return l.src[l.read]
}

// NextToken scans and returns the next token, advancing the lexer.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	if l.ch == 0 {
		return l.make(token.Eof, "")
	}

	line := l.line
	switch {
	case l.ch == '\n':
		l.readChar()
		l.line++
		return token.Token{Kind: token.Newline, Lexeme: "\\n", Line: line}
	case l.ch == '"' || l.ch == '\'':
		return l.readString()
	case isDigit(l.ch):
		return l.readNumber()
	case isAlpha(l.ch):
		return l.readIdentifier()
	}

	start := l.pos
	ch := l.ch
	l.readChar()

	var kind token.Kind
	switch ch {
	case '(':
		kind = token.LeftParen
	case ')':
		kind = token.RightParen
	case '{':
		kind = token.LeftBrace
	case '}':
		kind = token.RightBrace
	case ',':
		kind = token.Comma
	case '.':
		kind = token.Dot
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
	case ';':
		kind = token.Semicolon
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '!':
		if l.ch == '=' {
			l.readChar()
			return token.Token{Kind: token.BangEqual, Lexeme: l.src[start:l.pos], Line: line}
		}
		kind = token.Bang
	case '=':
		if l.ch == '=' {
			l.readChar()
			return token.Token{Kind: token.EqualEqual, Lexeme: l.src[start:l.pos], Line: line}
		}
		kind = token.Equal
	case '<':
		if l.ch == '=' {
			l.readChar()
			return token.Token{Kind: token.LessEqual, Lexeme: l.src[start:l.pos], Line: line}
		}
		kind = token.Less
	case '>':
		if l.ch == '=' {
			l.readChar()
			return token.Token{Kind: token.GreaterEqual, Lexeme: l.src[start:l.pos], Line: line}
		}
		kind = token.Greater
	default:
		return token.Token{Kind: token.Error, Lexeme: "Unexpected character: " + string(ch), Line: line}
	}

	return token.Token{Kind: kind, Lexeme: l.src[start:l.pos], Line: line}
}

// skipWhitespaceAndComments skips spaces, tabs, carriage returns, and
// `//` line comments. Newlines are significant and are not skipped
// here; NextToken emits them as Newline tokens.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) make(kind token.Kind, lexeme string) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: l.line}
}

func (l *Lexer) readString() token.Token {
	quote := l.ch
	line := l.line
	l.readChar() // consume opening quote

	var b strings.Builder
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\n' {
			l.line++
		}
		b.WriteByte(l.ch)
		l.readChar()
	}

	if l.ch == 0 {
		return token.Token{Kind: token.Error, Lexeme: "Unterminated string", Line: line}
	}
	l.readChar() // consume closing quote

	return token.Token{Kind: token.Str, Lexeme: b.String(), Line: line}
}

func (l *Lexer) readNumber() token.Token {
	start := l.pos
	line := l.line
	for isDigit(l.ch) {
		l.readChar()
	}

	kind := token.Int
	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = token.Float
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return token.Token{Kind: kind, Lexeme: l.src[start:l.pos], Line: line}
}

func (l *Lexer) readIdentifier() token.Token {
	start := l.pos
	line := l.line
	for isAlpha(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lexeme := l.src[start:l.pos]
	return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Line: line}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
