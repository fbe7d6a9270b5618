// Package compiler implements Flowim's single-pass Pratt compiler: it
// turns a token stream directly into a bytecode chunk tree with no
// intermediate AST, per spec.md §4.1.
package compiler

import (
	"strconv"

	"github.com/TenType/flowim/pkg/chunk"
	"github.com/TenType/flowim/pkg/lexer"
	"github.com/TenType/flowim/pkg/token"
	"github.com/TenType/flowim/pkg/value"
)

type functionType int

const (
	typeScript functionType = iota
	typeFunction
)

// local is a compile-time-only record of a stack slot owned by an
// active scope. depth == nil marks a local as declared but not yet
// initialized (visible by name, not yet readable) — spec.md §3.
type local struct {
	name  string
	depth *int
}

// level is one function's compilation state. Compiling a nested `fn`
// pushes a new level; its locals start with a sentinel occupying slot
// 0, reserved for the callee itself (spec.md §3, §4.1).
type level struct {
	enclosing    *level
	function     *chunk.Chunk
	functionType functionType
	locals       []local
	scopeDepth   int
}

// Compiler holds all single-pass compilation state: the lexer, the
// current/previous token, error/panic-mode bookkeeping, and the stack
// of function levels being compiled.
type Compiler struct {
	lex      *lexer.Lexer
	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	messages  []Message

	level *level

	// root is the top-level script chunk, whose FunctionTable is shared
	// by every nested level regardless of declaration depth — a
	// value.Fun.FunctionIndex is always an index into this single flat
	// table (spec.md §9's design note), never into whichever chunk
	// happens to be calling it. See pkg/vm's matching use of this same
	// table for every Call, not just frame.chunk's own.
	root *chunk.Chunk
}

// Compile compiles source into a top-level chunk (the "<script>"
// function) whose constant pool and FunctionTable hold any nested
// function declarations. On any compile error it returns nil and an
// *Error collecting every reported message.
func Compile(source string) (*chunk.Chunk, error) {
	c := &Compiler{lex: lexer.New(source)}
	c.level = &level{function: chunk.New(), functionType: typeScript}
	c.level.function.Name = "<script>"
	c.root = c.level.function
	// Slot 0 is reserved for the callee, matching every other level.
	c.level.locals = append(c.level.locals, local{name: "", depth: zero()})

	c.advance()
	for !c.check(token.Eof) {
		c.declaration()
	}
	c.emitReturn()

	if c.hadError {
		return nil, &Error{Messages: c.messages}
	}
	return c.level.function, nil
}

func zero() *int {
	z := 0
	return &z
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Kind != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) eat(kind token.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// eatDelimiters accepts any mix of zero or more newlines/semicolons as
// a statement terminator — spec.md §9's deliberately permissive rule.
func (c *Compiler) eatDelimiters() {
	for c.check(token.Newline) || c.check(token.Semicolon) {
		c.advance()
	}
}

// --- emission ----------------------------------------------------------

func (c *Compiler) emit(op chunk.Op, operand int) int {
	return c.level.function.Write(op, operand, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.Op) int {
	return c.emit(op, 0)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emit(chunk.Constant, c.level.function.AddConstant(v))
}

func (c *Compiler) emitReturn() {
	c.emit(chunk.Constant, c.level.function.AddConstant(value.Void()))
	c.emitOp(chunk.Return)
}

// emitJump emits a forward jump with a placeholder distance and
// returns its code index for later patchJump.
func (c *Compiler) emitJump(op chunk.Op) int {
	return c.emit(op, 0)
}

// patchJump backpatches the jump at index so it lands just past the
// current end of code: distance = codeLen - index - 1, i.e. "skip
// this many instructions after me" (spec.md §4.1).
func (c *Compiler) patchJump(index int) {
	distance := len(c.level.function.Code) - index - 1
	c.level.function.PatchOperand(index, distance)
}

// emitLoop emits a JumpBack targeting start, precomputing the distance
// the VM will subtract after advancing past this instruction.
func (c *Compiler) emitLoop(start int) {
	distance := len(c.level.function.Code) - start + 1
	c.emit(chunk.JumpBack, distance)
}

// --- errors --------------------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	at := ""
	switch tok.Kind {
	case token.Eof:
		at = "at end of file"
	case token.Error:
		at = ""
	default:
		at = "at `" + tok.Lexeme + "`"
	}
	c.messages = append(c.messages, Message{Line: tok.Line, At: at, Text: msg})
}

// synchronize skips tokens until a safe restart point: after a
// terminator, or before a statement-starting keyword (spec.md §4.1).
func (c *Compiler) synchronize() {
	c.panicMode = false

	for !c.check(token.Eof) {
		if c.previous.Kind == token.Newline || c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fn, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- declarations and statements -----------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Fn):
		c.fnDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.varDeclarationBody()
	c.eatDelimiters()
}

// varDeclarationBody compiles `var name = expr` without consuming a
// trailing terminator, so callers that need exactly one delimiter
// consumed afterward (forStatement's initializer, which must leave the
// for-loop's own ';' for itself to eat) don't inherit the greedy
// zero-or-more eatDelimiters a plain statement uses.
func (c *Compiler) varDeclarationBody() {
	global := c.parseVariable("Expected a variable name")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.errorAtCurrent("Expected an expression")
	}
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.Do):
		c.eatDelimiters()
		c.beginScope()
		c.block(token.End)
		c.endScope()
		c.eat(token.End, "Expected 'end' after block")
	default:
		c.expressionStatement()
	}
	c.eatDelimiters()
}

func (c *Compiler) printStatement() {
	c.expression()
	c.emitOp(chunk.Print)
}

func (c *Compiler) returnStatement() {
	if c.level.functionType == typeScript {
		c.error("Cannot return from top-level code")
	}

	if c.check(token.Newline) || c.check(token.Semicolon) || c.check(token.End) || c.check(token.Eof) {
		c.emitReturn()
	} else {
		c.expression()
		c.emitOp(chunk.Return)
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emitOp(chunk.Pop)
}

// block compiles declarations until it sees `end` (or one of the
// given terminator kinds, for blocks like if/else that stop early).
func (c *Compiler) block(terminators ...token.Kind) {
	for !c.atBlockEnd(terminators) && !c.check(token.Eof) {
		c.declaration()
	}
}

func (c *Compiler) atBlockEnd(terminators []token.Kind) bool {
	for _, k := range terminators {
		if c.check(k) {
			return true
		}
	}
	return false
}

// ifStatement implements spec.md §4.1's exact idiom: compile cond;
// JumpIfFalse(->else); Pop; then-block; Jump(->end); patch else; Pop;
// else-block (if present); patch end. Each branch gets its own scope.
func (c *Compiler) ifStatement() {
	c.expression()
	c.eatDelimiters()

	thenJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)

	c.beginScope()
	c.block(token.Else, token.End)
	c.endScope()

	elseJump := c.emitJump(chunk.Jump)
	c.patchJump(thenJump)
	c.emitOp(chunk.Pop)

	if c.match(token.Else) {
		c.eatDelimiters()
		c.beginScope()
		c.block(token.End)
		c.endScope()
	}
	c.patchJump(elseJump)

	c.eat(token.End, "Expected 'end' after if statement")
}

// whileStatement implements spec.md §4.1's while idiom.
func (c *Compiler) whileStatement() {
	start := len(c.level.function.Code)

	c.expression()
	c.eatDelimiters()

	exitJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)

	c.beginScope()
	c.block(token.End)
	c.endScope()

	c.emitLoop(start)

	c.patchJump(exitJump)
	c.emitOp(chunk.Pop)
	c.eat(token.End, "Expected 'end' after while statement")
}

// forStatement desugars `for init; cond; step body end` into the
// three-segment jump arrangement of spec.md §4.1: a Jump skips the
// step on first entry, a JumpBack closes the body to the step, and a
// JumpBack closes the step to the condition check. cond and step are
// both optional — a missing cond emits no exit jump, and a missing
// step makes the body's back jump target the condition check directly.
func (c *Compiler) forStatement() {
	c.beginScope()

	if c.match(token.Semicolon) {
		// no initializer
	} else if c.match(token.Var) {
		c.varDeclarationBody()
		c.eat(token.Semicolon, "Expected ';' after for-loop initializer")
	} else {
		c.expressionStatement()
		c.eat(token.Semicolon, "Expected ';' after for-loop initializer")
	}

	condStart := len(c.level.function.Code)
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		exitJump = c.emitJump(chunk.JumpIfFalse)
		c.emitOp(chunk.Pop)
	}
	c.eat(token.Semicolon, "Expected ';' after for-loop condition")

	// A step is present only if the next token can start an expression
	// (mirroring parsePrecedence's own prefix-rule check) — a header
	// that omits it moves straight into the body, whose leading
	// statement keyword (print, if, var, ...) has no prefix rule.
	loopStart := condStart
	if getRule(c.current.Kind).prefix != nil {
		bodyJump := c.emitJump(chunk.Jump)
		stepStart := len(c.level.function.Code)

		c.expression()
		c.emitOp(chunk.Pop)

		c.emitLoop(condStart)
		loopStart = stepStart
		c.patchJump(bodyJump)
	}

	c.eatDelimiters()
	c.beginScope()
	c.block(token.End)
	c.endScope()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.Pop)
	}
	c.eat(token.End, "Expected 'end' after for statement")

	c.endScope()
}

// --- scopes and locals ---------------------------------------------

func (c *Compiler) beginScope() {
	c.level.scopeDepth++
}

func (c *Compiler) endScope() {
	c.level.scopeDepth--

	for len(c.level.locals) > 0 {
		last := c.level.locals[len(c.level.locals)-1]
		if last.depth == nil || *last.depth <= c.level.scopeDepth {
			break
		}
		c.emitOp(chunk.Pop)
		c.level.locals = c.level.locals[:len(c.level.locals)-1]
	}
}

func (c *Compiler) parseVariable(message string) int {
	c.eat(token.Identifier, message)
	name := c.previous.Lexeme

	c.declareVariable(name)
	if c.level.scopeDepth > 0 {
		return 0
	}
	return c.level.function.AddConstant(value.Str(name))
}

func (c *Compiler) declareVariable(name string) {
	if c.level.scopeDepth == 0 {
		return
	}

	for i := len(c.level.locals) - 1; i >= 0; i-- {
		l := c.level.locals[i]
		if l.depth != nil && *l.depth < c.level.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Cannot redeclare variable in this scope")
		}
	}
	c.level.locals = append(c.level.locals, local{name: name, depth: nil})
}

func (c *Compiler) markInitialized() {
	if c.level.scopeDepth == 0 {
		return
	}
	depth := c.level.scopeDepth
	c.level.locals[len(c.level.locals)-1].depth = &depth
}

func (c *Compiler) defineVariable(global int) {
	if c.level.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emit(chunk.DefineGlobal, global)
}

// resolveLocal scans the current level's locals newest-to-oldest.
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.level.locals) - 1; i >= 0; i-- {
		if c.level.locals[i].name == name {
			if c.level.locals[i].depth == nil {
				c.error("Cannot read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// --- functions -------------------------------------------------------

func (c *Compiler) fnDeclaration() {
	c.eat(token.Identifier, "Expected a function name")
	name := c.previous.Lexeme

	c.declareVariable(name)
	c.markInitialized()
	var global int
	if c.level.scopeDepth == 0 {
		global = c.level.function.AddConstant(value.Str(name))
	}

	c.compileFunction(name)
	c.defineVariable(global)
	c.eatDelimiters()
}

// compileFunction parses `(params) ... end` and emits a Constant
// carrying the compiled Fun value into the *enclosing* chunk — see
// spec.md §4.1's "Function compilation".
func (c *Compiler) compileFunction(name string) {
	enclosing := c.level
	c.level = &level{
		enclosing:    enclosing,
		function:     chunk.New(),
		functionType: typeFunction,
	}
	c.level.function.Name = name
	// Slot 0 reserved for the callee.
	c.level.locals = append(c.level.locals, local{name: "", depth: zero()})

	c.beginScope()
	c.eat(token.LeftParen, "Expected '(' after function name")
	if !c.check(token.RightParen) {
		for {
			c.level.function.Arity++
			paramGlobal := c.parseVariable("Expected parameter name")
			c.defineVariable(paramGlobal)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.eat(token.RightParen, "Expected ')' after parameters")
	c.eatDelimiters()

	c.block(token.End)
	c.eat(token.End, "Expected 'end' after function body")
	c.emitReturn()

	fnChunk := c.level.function
	arity := fnChunk.Arity
	c.level = enclosing

	fnIndex := c.root.AddFunction(fnChunk)
	c.emitConstant(value.FunValue(value.Fun{
		Name:          name,
		Arity:         arity,
		FunctionIndex: fnIndex,
		Native:        -1,
	}))
}

// --- expressions -----------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence is the heart of the Pratt parser, following spec.md
// §4.1 exactly: advance once, run the prefix rule of the token just
// consumed (with can_assign gated on precedence), then keep consuming
// infix operators whose precedence the caller's floor allows.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expected expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.error("Invalid assignment target")
	}
}

func (c *Compiler) boolLiteral(_ bool) {
	c.emitConstant(value.Bool(c.previous.Lexeme == "true"))
}

func (c *Compiler) intLiteral(_ bool) {
	n, err := strconv.Atoi(c.previous.Lexeme)
	if err != nil {
		c.error("Integer literal out of range")
		return
	}
	c.emitConstant(value.Int(n))
}

func (c *Compiler) floatLiteral(_ bool) {
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid float literal")
		return
	}
	c.emitConstant(value.Float(f))
}

func (c *Compiler) strLiteral(_ bool) {
	c.emitConstant(value.Str(c.previous.Lexeme))
}

func (c *Compiler) group(_ bool) {
	c.expression()
	c.eat(token.RightParen, "Expected closing parenthesis ')'")
}

func (c *Compiler) unary(_ bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)

	switch op {
	case token.Minus:
		c.emitOp(chunk.Negate)
	case token.Not:
		c.emitOp(chunk.Not)
	}
}

// binary emits the operator table of spec.md §4.1: most map to a
// single opcode, but != / >= / <= are each a two-opcode idiom built
// from Equal/Less/Greater plus Not.
func (c *Compiler) binary(_ bool) {
	op := c.previous.Kind
	rule := getRule(op)
	c.parsePrecedence(rule.precedence.next())

	switch op {
	case token.Plus:
		c.emitOp(chunk.Add)
	case token.Minus:
		c.emitOp(chunk.Subtract)
	case token.Star:
		c.emitOp(chunk.Multiply)
	case token.Slash:
		c.emitOp(chunk.Divide)
	case token.EqualEqual:
		c.emitOp(chunk.Equal)
	case token.BangEqual:
		c.emitOp(chunk.Equal)
		c.emitOp(chunk.Not)
	case token.Greater:
		c.emitOp(chunk.Greater)
	case token.GreaterEqual:
		c.emitOp(chunk.Less)
		c.emitOp(chunk.Not)
	case token.Less:
		c.emitOp(chunk.Less)
	case token.LessEqual:
		c.emitOp(chunk.Greater)
		c.emitOp(chunk.Not)
	}
}

// and implements short-circuit &&: JumpIfFalse(end); Pop; rhs; patch
// end. JumpIfFalse peeks without popping, so the falsy lhs itself
// remains on the stack as the overall result.
func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or implements short-circuit ||: JumpIfFalse(else); Jump(end); patch
// else; Pop; rhs; patch end.
func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(chunk.JumpIfFalse)
	endJump := c.emitJump(chunk.Jump)

	c.patchJump(elseJump)
	c.emitOp(chunk.Pop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	slot := c.resolveLocal(name)

	if canAssign && c.check(token.Equal) {
		// Consume the '=' here, inside the prefix rule, rather than
		// leaving it for parsePrecedence's trailing check — that check
		// exists only to catch a leftover '=' after an invalid target.
		c.advance()
		c.expression()
		if slot != -1 {
			c.emit(chunk.SetLocal, slot)
		} else {
			c.emit(chunk.SetGlobal, c.level.function.AddConstant(value.Str(name)))
		}
		return
	}

	if slot != -1 {
		c.emit(chunk.GetLocal, slot)
	} else {
		c.emit(chunk.GetGlobal, c.level.function.AddConstant(value.Str(name)))
	}
}

// call compiles `expr(args)`: the callee expression is already on the
// stack (it's the left-hand side infix() was invoked with); each
// argument expression follows, then Call(argc).
func (c *Compiler) call(_ bool) {
	argc := c.argumentList()
	c.emit(chunk.Call, argc)
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.RightParen) {
		for {
			c.expression()
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.eat(token.RightParen, "Expected ')' after arguments")
	return argc
}
