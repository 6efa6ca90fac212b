package analysis

import (
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
)

// Value is an abstract value held in a local variable or stack slot.
type Value interface {
	// Size returns the number of slots the value occupies: 2 for long and
	// double values, 1 otherwise.
	Size() int
}

// Insn is the instruction being interpreted together with its index in the
// method.
type Insn struct {
	Index int
	bytecode.Instruction
}

// Interpreter is the transfer function set of an abstract domain. The frame
// calls one method per instruction shape and never inspects the values it
// gets back.
//
// Methods whose instruction produces nothing (stores to fields, branches,
// returns, void calls) return the zero V, which the frame discards. Errors
// returned by an Interpreter are passed to the caller of Analyze unchanged.
//
// An Interpreter shared between concurrent analyses must be safe for
// concurrent use.
type Interpreter[V Value] interface {
	// NewValue returns the value for a parameter or return type. The zero
	// desc.Type asks for an uninitialized value.
	NewValue(t desc.Type) V

	// NewEmptyValue returns the value of an uninitialized local.
	NewEmptyValue(local int) V

	// NewExceptionValue returns the value pushed on entry to an exception
	// handler.
	NewExceptionValue(h bytecode.ExceptionHandler, catchType desc.Type) V

	// NewOperation interprets an instruction without arguments:
	// aconst_null, iconst_*, lconst_*, fconst_*, dconst_*, bipush, sipush,
	// ldc, jsr, getstatic, new.
	NewOperation(insn Insn) (V, error)

	// CopyOperation interprets an instruction that moves a value: loads,
	// stores, and every position written by pop, dup and swap variants.
	CopyOperation(insn Insn, v V) (V, error)

	// UnaryOperation interprets an instruction with one argument: negations,
	// iinc, conversions, single operand branches, switches, returns with a
	// value, putstatic, getfield, newarray, anewarray, arraylength, athrow,
	// checkcast, instanceof, monitorenter, monitorexit.
	UnaryOperation(insn Insn, v V) (V, error)

	// BinaryOperation interprets an instruction with two arguments: array
	// loads, arithmetic, comparisons, two operand branches, putfield.
	BinaryOperation(insn Insn, v1, v2 V) (V, error)

	// TernaryOperation interprets array stores.
	TernaryOperation(insn Insn, v1, v2, v3 V) (V, error)

	// NaryOperation interprets invocations and multianewarray. For
	// invocations other than invokestatic and invokedynamic, the receiver
	// is vs[0].
	NaryOperation(insn Insn, vs []V) (V, error)

	// ReturnOperation checks a returned value against the method's declared
	// return value.
	ReturnOperation(insn Insn, v, expected V) error

	// Merge returns a value standing for either v1 or v2. Merging a value
	// with itself must return an equal value. When sizes differ the result
	// has the smaller size.
	Merge(v1, v2 V) (V, error)

	// Equal reports whether two values are the same.
	Equal(v1, v2 V) bool
}
