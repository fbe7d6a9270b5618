package compiler

import "fmt"

// Message is one reported problem: the line it was found at, the
// token it was found near (empty for a lexer-reported message that
// already names itself), and the problem text.
type Message struct {
	Line int
	At   string
	Text string
}

func (m Message) String() string {
	if m.At == "" {
		return fmt.Sprintf("[line %d] Error: %s", m.Line, m.Text)
	}
	return fmt.Sprintf("[line %d] Error %s: %s", m.Line, m.At, m.Text)
}

// Error collects every Message the compiler reported across a single
// Compile call. Reporting continues across the whole source (subject
// to panic-mode suppression) rather than aborting at the first error,
// per spec.md §4.1/§7.
type Error struct {
	Messages []Message
}

func (e *Error) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0].String()
	}
	return fmt.Sprintf("%d compile errors, first: %s", len(e.Messages), e.Messages[0])
}
