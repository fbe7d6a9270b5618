package chunk

import "fmt"

// Op is the tagged opcode discriminator. Several variants carry an
// Operand: a constant-pool index, a jump distance, a local-slot index,
// or an argument/arity count, per spec.md §6.
type Op int

const (
	Constant Op = iota
	Add
	Subtract
	Multiply
	Divide
	Negate
	Not
	Return
	Equal
	Greater
	Less
	Print
	Pop
	Jump
	JumpIfFalse
	JumpBack
	DefineGlobal
	GetGlobal
	SetGlobal
	GetLocal
	SetLocal
	Call
	// NativeCall is the one opcode beyond spec.md's exhaustive list —
	// see SPEC_FULL.md §4.2. It carries the natives-table index of the
	// Go function to invoke.
	NativeCall
)

var opNames = map[Op]string{
	Constant: "CONSTANT", Add: "ADD", Subtract: "SUBTRACT",
	Multiply: "MULTIPLY", Divide: "DIVIDE", Negate: "NEGATE", Not: "NOT",
	Return: "RETURN", Equal: "EQUAL", Greater: "GREATER", Less: "LESS",
	Print: "PRINT", Pop: "POP", Jump: "JUMP", JumpIfFalse: "JUMP_IF_FALSE",
	JumpBack: "JUMP_BACK", DefineGlobal: "DEFINE_GLOBAL",
	GetGlobal: "GET_GLOBAL", SetGlobal: "SET_GLOBAL",
	GetLocal: "GET_LOCAL", SetLocal: "SET_LOCAL", Call: "CALL",
	NativeCall: "NATIVE_CALL",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Instruction is one decoded entry in a Chunk's code stream: an opcode
// plus the operand it carries (zero if it carries none).
type Instruction struct {
	Op      Op
	Operand int
}
