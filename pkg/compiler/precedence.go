package compiler

import "github.com/TenType/flowim/pkg/token"

// precedence is the Pratt parser's binding-power ladder, low to high,
// per spec.md §4.1.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

// parseFn is the signature shared by every prefix and infix parse
// routine: it consumes tokens starting at c.previous and emits
// bytecode directly — there is no intermediate AST node to return.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the static table keyed by token kind, built once as a
// package-level literal (the Go rendering of the original compiler's
// `HashMap::from([...])` rule table).
var rules = map[token.Kind]parseRule{
	token.LeftParen:    {prefix: (*Compiler).group, infix: (*Compiler).call, precedence: precCall},
	token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
	token.Plus:         {infix: (*Compiler).binary, precedence: precTerm},
	token.Slash:        {infix: (*Compiler).binary, precedence: precFactor},
	token.Star:         {infix: (*Compiler).binary, precedence: precFactor},
	token.Bool:         {prefix: (*Compiler).boolLiteral},
	token.Int:          {prefix: (*Compiler).intLiteral},
	token.Float:        {prefix: (*Compiler).floatLiteral},
	token.Str:          {prefix: (*Compiler).strLiteral},
	token.Not:          {prefix: (*Compiler).unary},
	token.And:          {infix: (*Compiler).and, precedence: precAnd},
	token.Or:           {infix: (*Compiler).or, precedence: precOr},
	token.BangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
	token.EqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
	token.Greater:      {infix: (*Compiler).binary, precedence: precComparison},
	token.GreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
	token.Less:         {infix: (*Compiler).binary, precedence: precComparison},
	token.LessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
	token.Identifier:   {prefix: (*Compiler).variable},
}

// ruleTable is the table getRule reads. It is set from rules in init
// rather than in its declaration: rules holds parse routines that call
// back into getRule, and Go rejects that as an initialization cycle.
var ruleTable map[token.Kind]parseRule

func init() {
	ruleTable = rules
}

func getRule(kind token.Kind) parseRule {
	return ruleTable[kind]
}

func (p precedence) next() precedence {
	if p == precPrimary {
		return precPrimary
	}
	return p + 1
}
