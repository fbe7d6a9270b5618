// Package vm executes a compiled chunk tree on a stack-based virtual
// machine: an operand stack, a frame stack with one CallFrame per
// active function invocation, and a single global name→value table.
// See spec.md §4.2.
package vm

import (
	"fmt"
	"io"

	"github.com/TenType/flowim/pkg/chunk"
	"github.com/TenType/flowim/pkg/value"
)

// maxFrames bounds recursion depth; exceeding it is a runtime error
// rather than an unbounded Go stack/heap blowup (spec.md §4.2).
const maxFrames = 64

// RuntimeError is returned by Run when execution fails after compiling
// cleanly — a failed arithmetic operation, an undefined global, a
// division by zero, a bad call target, and so on.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	s := e.Message
	for _, line := range e.Trace {
		s += "\n" + line
	}
	return s
}

// Native is the signature every natives-table entry implements: given
// its arguments (in call order), it returns a Value or an error
// describing why it failed.
type Native func(args []value.Value) (value.Value, error)

// NativeEntry pairs a native's Go implementation with the tiny
// {NativeCall(id), Return} chunk pkg/natives built for it, so the
// ordinary Call opcode can invoke a native exactly like a user-defined
// function — see SPEC_FULL.md §D.
type NativeEntry struct {
	Chunk *chunk.Chunk
	Fn    Native
}

// callFrame is the execution context for one active invocation:
// spec.md §3's `{ function, counter, index }`, represented here as a
// pointer to the chunk being executed plus the two integers.
type callFrame struct {
	chunk   *chunk.Chunk
	name    string
	counter int
	index   int
}

// VM is one self-contained execution: an operand stack, a frame stack,
// and the global table calls and top-level code read and write.
type VM struct {
	stack   []value.Value
	frames  []*callFrame
	globals map[string]value.Value
	natives []NativeEntry
	out     io.Writer

	// root is the top-level script chunk, whose FunctionTable is the
	// single flat table every value.Fun.FunctionIndex indexes into, regardless
	// of which frame is making the call. Mirrors pkg/compiler's use of
	// one shared table rather than per-chunk tables, so a function
	// value that escapes its defining scope (passed as an argument,
	// returned, called recursively from its own body) still resolves.
	root *chunk.Chunk
}

// New returns a VM that prints to out, starts with the given globals
// (typically pre-populated by pkg/natives), and dispatches NativeCall
// through natives.
func New(out io.Writer, globals map[string]value.Value, natives []NativeEntry) *VM {
	return &VM{
		globals: globals,
		natives: natives,
		out:     out,
	}
}

// Globals returns the VM's current global table, for callers (such as
// a REPL) that want to carry global state across successive Run calls.
func (vm *VM) Globals() map[string]value.Value {
	return vm.globals
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() value.Value {
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) peekAt(distanceFromTop int) value.Value {
	return vm.stack[len(vm.stack)-1-distanceFromTop]
}

// Run executes top's code as the top-level "<script>" function.
// Execution begins by pushing a single CallFrame with counter 0 and
// index 0, matching spec.md §4.2's Contract, and continues until that
// frame's Return empties the frame stack. Slot 0 is reserved for the
// callee at every frame, the script's own frame included, so Run seeds
// stack[0] with the script's Fun value before appending the frame —
// exactly what call does for an ordinary invocation — rather than
// leaving index 0 pointing at whatever the first pushed local happens
// to be.
func (vm *VM) Run(top *chunk.Chunk) error {
	vm.root = top
	vm.push(value.FunValue(value.Fun{Name: top.Name, Arity: top.Arity, Native: -1}))
	frame := &callFrame{chunk: top, name: top.Name, index: 0}
	vm.frames = append(vm.frames, frame)

	for {
		frame := vm.frames[len(vm.frames)-1]
		instr := frame.chunk.Code[frame.counter]
		frame.counter++

		switch instr.Op {
		case chunk.Constant:
			vm.push(frame.chunk.Constants[instr.Operand])

		case chunk.Add, chunk.Subtract, chunk.Multiply, chunk.Divide,
			chunk.Equal, chunk.Greater, chunk.Less:
			if err := vm.binaryOp(frame, instr.Op); err != nil {
				return err
			}

		case chunk.Negate:
			v := vm.peek()
			switch v.Kind {
			case value.KindInt:
				vm.pop()
				vm.push(value.Int(-v.I))
			case value.KindFloat:
				vm.pop()
				vm.push(value.Float(-v.F))
			default:
				return vm.runtimeError(frame, fmt.Sprintf("Operand of negation must be an `int` or `float`, got `%s`", value.TypeName(v)))
			}

		case chunk.Not:
			v := vm.pop()
			vm.push(value.Bool(value.Falsy(v)))

		case chunk.Print:
			fmt.Fprintln(vm.out, vm.pop().String())

		case chunk.Pop:
			vm.pop()

		case chunk.Jump:
			frame.counter += instr.Operand

		case chunk.JumpIfFalse:
			if value.Falsy(vm.peek()) {
				frame.counter += instr.Operand
			}

		case chunk.JumpBack:
			frame.counter -= instr.Operand

		case chunk.DefineGlobal:
			name := frame.chunk.Constants[instr.Operand].S
			vm.globals[name] = vm.pop()

		case chunk.GetGlobal:
			name := frame.chunk.Constants[instr.Operand].S
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(frame, fmt.Sprintf("`%s` is not defined", name))
			}
			vm.push(v)

		case chunk.SetGlobal:
			name := frame.chunk.Constants[instr.Operand].S
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(frame, fmt.Sprintf("`%s` is not defined", name))
			}
			vm.globals[name] = vm.peek()

		case chunk.GetLocal:
			vm.push(vm.stack[frame.index+instr.Operand])

		case chunk.SetLocal:
			vm.stack[frame.index+instr.Operand] = vm.peek()

		case chunk.Call:
			if err := vm.call(frame, instr.Operand); err != nil {
				return err
			}

		case chunk.NativeCall:
			if err := vm.nativeCall(frame, instr.Operand); err != nil {
				return err
			}

		case chunk.Return:
			result := vm.pop()
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.stack = vm.stack[:frame.index]
			vm.push(result)
		}
	}
}

// binaryOp implements spec.md §4.2's typed arithmetic table: Int/Float
// operate with Int-to-Float promotion when mixed, Str only supports
// `+`/`>`/`<`, and every other combination is a runtime error.
func (vm *VM) binaryOp(frame *callFrame, op chunk.Op) error {
	b := vm.pop()
	a := vm.pop()

	if a.Kind == value.KindInt && b.Kind == value.KindFloat {
		a = value.Float(float64(a.I))
	} else if a.Kind == value.KindFloat && b.Kind == value.KindInt {
		b = value.Float(float64(b.I))
	}

	badOperation := func(symbol, expected string) error {
		return vm.runtimeError(frame, fmt.Sprintf(
			"Cannot use the operator `%s` with `%s` and `%s`; expected two arguments of `%s`.",
			symbol, value.TypeName(a), value.TypeName(b), expected))
	}

	switch op {
	case chunk.Add:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			vm.push(value.Int(a.I + b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			vm.push(value.Float(a.F + b.F))
		case a.Kind == value.KindStr && b.Kind == value.KindStr:
			vm.push(value.Str(a.S + b.S))
		default:
			return badOperation("+", "int or float or str")
		}
	case chunk.Subtract:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			vm.push(value.Int(a.I - b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			vm.push(value.Float(a.F - b.F))
		default:
			return badOperation("-", "int or float")
		}
	case chunk.Multiply:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			vm.push(value.Int(a.I * b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			vm.push(value.Float(a.F * b.F))
		default:
			return badOperation("*", "int or float")
		}
	case chunk.Divide:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			if b.I == 0 {
				return vm.runtimeError(frame, "Division by zero")
			}
			vm.push(value.Int(a.I / b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			if b.F == 0 {
				return vm.runtimeError(frame, "Division by zero")
			}
			vm.push(value.Float(a.F / b.F))
		default:
			return badOperation("/", "int or float")
		}
	case chunk.Equal:
		vm.push(value.Bool(value.Equal(a, b)))
	case chunk.Greater:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			vm.push(value.Bool(a.I > b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			vm.push(value.Bool(a.F > b.F))
		case a.Kind == value.KindStr && b.Kind == value.KindStr:
			vm.push(value.Bool(a.S > b.S))
		default:
			return badOperation(">", "int or float or str")
		}
	case chunk.Less:
		switch {
		case a.Kind == value.KindInt && b.Kind == value.KindInt:
			vm.push(value.Bool(a.I < b.I))
		case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
			vm.push(value.Bool(a.F < b.F))
		case a.Kind == value.KindStr && b.Kind == value.KindStr:
			vm.push(value.Bool(a.S < b.S))
		default:
			return badOperation("<", "int or float or str")
		}
	}
	return nil
}

// call implements spec.md §4.2's Calls: peek the callee at
// stack[top-argc], verify it's a Fun with matching arity, and push a
// new CallFrame over its chunk — exactly the same path for a
// user-defined function and a native. A native's chunk is the tiny
// {NativeCall(id), Return} body pkg/natives built for it, so this
// opcode never needs to know natives exist (SPEC_FULL.md §D).
func (vm *VM) call(frame *callFrame, argc int) error {
	callee := vm.peekAt(argc)
	if callee.Kind != value.KindFun {
		return vm.runtimeError(frame, fmt.Sprintf("`%s` is not callable", value.TypeName(callee)))
	}
	if callee.Fn.Arity != argc {
		return vm.runtimeError(frame, fmt.Sprintf(
			"`%s` expects %d argument(s), got %d", callee.Fn.Name, callee.Fn.Arity, argc))
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError(frame, "Call stack limit exceeded")
	}

	var callChunk *chunk.Chunk
	if callee.Fn.Native >= 0 {
		callChunk = vm.natives[callee.Fn.Native].Chunk
	} else {
		callChunk = vm.root.FunctionTable[callee.Fn.FunctionIndex]
	}
	base := len(vm.stack) - argc - 1
	vm.frames = append(vm.frames, &callFrame{chunk: callChunk, name: callee.Fn.Name, index: base})
	return nil
}

// nativeCall runs the Go function registered at id against the
// current frame's arguments (stack[index+1 : index+1+arity]) and
// leaves the result on top of stack for the chunk's following Return
// to pick up — Return's usual stack-truncation-to-index then discards
// the callee and arguments exactly as it would for a user function.
func (vm *VM) nativeCall(frame *callFrame, id int) error {
	arity := frame.chunk.Arity
	args := make([]value.Value, arity)
	copy(args, vm.stack[frame.index+1:frame.index+1+arity])

	result, err := vm.natives[id].Fn(args)
	if err != nil {
		return vm.runtimeError(frame, err.Error())
	}
	vm.push(result)
	return nil
}

// runtimeError renders the message plus a frame-by-frame trail (most
// recent first), per spec.md §4.2/§7.
func (vm *VM) runtimeError(at *callFrame, msg string) error {
	trace := make([]string, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		line := 0
		if f.counter-1 >= 0 && f.counter-1 < len(f.chunk.Lines) {
			line = f.chunk.Lines[f.counter-1]
		}
		name := f.name
		if name == "" {
			name = "<script>"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	_ = at
	return &RuntimeError{Message: msg, Trace: trace}
}
