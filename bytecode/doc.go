// Package bytecode provides immutable representations of method bodies as
// consumed by the analysis package.
//
// A class-file reader, an assembler, or a test builds a [Method] once; the
// analyzer only reads it. Instructions are addressed by their index in the
// method, never by byte offset, and every control transfer names its target
// by instruction index.
//
// # Key Types
//
//   - [Method]: an immutable method body with its shape (descriptor,
//     access flags, max stack, max locals)
//   - [Instruction]: one instruction with its opcode and operands (value type)
//   - [ExceptionHandler]: one entry of the exception table (value type)
//   - [Builder]: assembles a Method with symbolic labels
//
// # Immutability Guarantees
//
// [NewMethod] copies every input slice, including the switch target and key
// slices inside instructions. Index-based access is used for all
// collections:
//
//	m.InstructionAt(0)
//	m.HandlerAt(i)
//
// Slices reachable from a returned Instruction are shared with the Method
// and must not be modified.
//
// Example:
//
//	b := bytecode.NewBuilder("C", "abs", "(I)I", bytecode.AccStatic)
//	done := b.NewLabel()
//	b.Var(op.Iload, 0).
//		Jump(op.Ifge, done).
//		Var(op.Iload, 0).Op(op.Ineg).Op(op.Ireturn).
//		Mark(done).
//		Var(op.Iload, 0).Op(op.Ireturn)
//	m, err := b.MaxStack(1).MaxLocals(1).Build()
package bytecode
