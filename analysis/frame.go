package analysis

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/op"
)

// Frame is the symbolic state at one program point: a fixed number of local
// variable slots and an operand stack bounded by a maximum size in slots.
//
// Values stored in a Frame are never modified in place; Merge replaces
// them. A Frame returned in a Result must be treated as read-only.
type Frame[V Value] struct {
	locals      []V
	stack       []V
	maxStack    int
	stackSlots  int
	returnValue V
	hasReturn   bool
}

// NewFrame returns a frame with numLocals zero-valued locals and an empty
// stack of at most maxStack slots.
func NewFrame[V Value](numLocals, maxStack int) *Frame[V] {
	capacity := maxStack
	if capacity > 16 {
		capacity = 16
	}
	return &Frame[V]{
		locals:   make([]V, numLocals),
		stack:    make([]V, 0, capacity),
		maxStack: maxStack,
	}
}

// Init copies the state of src into f.
func (f *Frame[V]) Init(src *Frame[V]) *Frame[V] {
	if cap(f.locals) >= len(src.locals) {
		f.locals = f.locals[:len(src.locals)]
	} else {
		f.locals = make([]V, len(src.locals))
	}
	copy(f.locals, src.locals)
	f.stack = append(f.stack[:0], src.stack...)
	f.maxStack = src.maxStack
	f.stackSlots = src.stackSlots
	f.returnValue = src.returnValue
	f.hasReturn = src.hasReturn
	return f
}

// Clone returns a copy of f.
func (f *Frame[V]) Clone() *Frame[V] {
	c := &Frame[V]{
		locals: make([]V, len(f.locals)),
		stack:  make([]V, 0, cap(f.stack)),
	}
	return c.Init(f)
}

// SetReturn sets the value a return instruction must produce. Methods
// returning void have no return value.
func (f *Frame[V]) SetReturn(v V) {
	f.returnValue = v
	f.hasReturn = true
}

// Return returns the expected return value, if the method has one.
func (f *Frame[V]) Return() (V, bool) {
	return f.returnValue, f.hasReturn
}

// LocalCount returns the number of local variable slots.
func (f *Frame[V]) LocalCount() int {
	return len(f.locals)
}

// MaxStack returns the maximum stack size in slots.
func (f *Frame[V]) MaxStack() int {
	return f.maxStack
}

// Local returns the value of local variable i.
func (f *Frame[V]) Local(i int) (V, error) {
	if i < 0 || i >= len(f.locals) {
		var zero V
		return zero, errors.NewAnalysisError(errors.E2003,
			"trying to get an inexistent local variable %d", i)
	}
	return f.locals[i], nil
}

// SetLocal sets local variable i to v.
func (f *Frame[V]) SetLocal(i int, v V) error {
	if i < 0 || i >= len(f.locals) {
		return errors.NewAnalysisError(errors.E2003,
			"trying to set an inexistent local variable %d", i)
	}
	f.locals[i] = v
	return nil
}

// Locals returns a copy of the local variable values.
func (f *Frame[V]) Locals() []V {
	return append([]V(nil), f.locals...)
}

// StackSize returns the number of values on the operand stack.
func (f *Frame[V]) StackSize() int {
	return len(f.stack)
}

// StackSlots returns the number of slots used by the operand stack.
func (f *Frame[V]) StackSlots() int {
	return f.stackSlots
}

// Stack returns the value at position i of the operand stack, counted from
// the bottom.
func (f *Frame[V]) Stack(i int) (V, error) {
	if i < 0 || i >= len(f.stack) {
		var zero V
		return zero, errors.NewAnalysisError(errors.E2001,
			"stack position %d out of range [0, %d)", i, len(f.stack))
	}
	return f.stack[i], nil
}

// StackValues returns a copy of the operand stack, bottom first.
func (f *Frame[V]) StackValues() []V {
	return append([]V(nil), f.stack...)
}

// ClearStack removes all values from the operand stack.
func (f *Frame[V]) ClearStack() {
	var zero V
	for i := range f.stack {
		f.stack[i] = zero
	}
	f.stack = f.stack[:0]
	f.stackSlots = 0
}

// Push pushes v onto the operand stack.
func (f *Frame[V]) Push(v V) error {
	if f.stackSlots+v.Size() > f.maxStack {
		return errors.NewAnalysisError(errors.E2002,
			"insufficient maximum stack size %d", f.maxStack)
	}
	f.stack = append(f.stack, v)
	f.stackSlots += v.Size()
	return nil
}

// Pop removes and returns the value on top of the operand stack.
func (f *Frame[V]) Pop() (V, error) {
	var zero V
	n := len(f.stack)
	if n == 0 {
		return zero, errors.NewAnalysisError(errors.E2001,
			"cannot pop operand off an empty stack")
	}
	v := f.stack[n-1]
	f.stack[n-1] = zero
	f.stack = f.stack[:n-1]
	f.stackSlots -= v.Size()
	return v, nil
}

// Merge merges other into f and reports whether f changed. Both frames must
// have the same stack height and the same value size at each stack
// position.
func (f *Frame[V]) Merge(other *Frame[V], interp Interpreter[V]) (bool, error) {
	changed, err := f.merge(other, interp)
	return changed, unwrapStrategy(err)
}

func (f *Frame[V]) merge(other *Frame[V], interp Interpreter[V]) (bool, error) {
	if len(f.stack) != len(other.stack) {
		return false, errors.NewAnalysisError(errors.E2005,
			"incompatible stack heights %d and %d", len(f.stack), len(other.stack))
	}
	if len(f.locals) != len(other.locals) {
		return false, errors.NewAnalysisError(errors.E3001,
			"frames have %d and %d locals", len(f.locals), len(other.locals))
	}
	changed := false
	for i := range f.locals {
		c, err := mergeSlot(&f.locals[i], other.locals[i], interp)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	for i := range f.stack {
		if f.stack[i].Size() != other.stack[i].Size() {
			return false, errors.NewAnalysisError(errors.E2006,
				"incompatible value sizes %d and %d at stack position %d",
				f.stack[i].Size(), other.stack[i].Size(), i)
		}
		c, err := mergeSlot(&f.stack[i], other.stack[i], interp)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

func mergeSlot[V Value](slot *V, v V, interp Interpreter[V]) (bool, error) {
	merged, err := interp.Merge(*slot, v)
	if err != nil {
		return false, strategyError{err}
	}
	if want := min((*slot).Size(), v.Size()); merged.Size() != want {
		return false, errors.NewAnalysisError(errors.E3001,
			"merging values of size %d and %d produced size %d",
			(*slot).Size(), v.Size(), merged.Size())
	}
	if interp.Equal(merged, *slot) {
		return false, nil
	}
	*slot = merged
	return true, nil
}

// MergeSubroutine replaces every local not used by a subroutine with its
// value in beforeJSR, the frame of the jsr that called it, and reports
// whether f changed.
func (f *Frame[V]) MergeSubroutine(beforeJSR *Frame[V], localsUsed []bool, interp Interpreter[V]) bool {
	changed := false
	for i := range f.locals {
		if i < len(localsUsed) && localsUsed[i] {
			continue
		}
		if !interp.Equal(f.locals[i], beforeJSR.locals[i]) {
			f.locals[i] = beforeJSR.locals[i]
			changed = true
		}
	}
	return changed
}

// Execute simulates the instruction on f. Stack discipline failures are
// reported as *errors.AnalysisError carrying the instruction index; errors
// from the interpreter are returned unchanged.
func (f *Frame[V]) Execute(insn Insn, interp Interpreter[V]) error {
	return stampError(f.execute(insn, interp), insn, "")
}

func (f *Frame[V]) execute(insn Insn, interp Interpreter[V]) error {
	switch code := insn.Opcode; code {
	case op.Nop, op.Goto, op.Ret:
		return nil

	case op.AconstNull, op.IconstM1, op.Iconst0, op.Iconst1, op.Iconst2,
		op.Iconst3, op.Iconst4, op.Iconst5, op.Lconst0, op.Lconst1,
		op.Fconst0, op.Fconst1, op.Fconst2, op.Dconst0, op.Dconst1,
		op.Bipush, op.Sipush, op.Ldc, op.Jsr, op.Getstatic, op.New:
		return f.pushResult(interp.NewOperation(insn))

	case op.Iload, op.Lload, op.Fload, op.Dload, op.Aload:
		v, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		return f.pushResult(interp.CopyOperation(insn, v))

	case op.Istore, op.Lstore, op.Fstore, op.Dstore, op.Astore:
		return f.store(insn, interp)

	case op.Iastore, op.Lastore, op.Fastore, op.Dastore, op.Aastore,
		op.Bastore, op.Castore, op.Sastore:
		vs, err := f.popN(3)
		if err != nil {
			return err
		}
		_, err = interp.TernaryOperation(insn, vs[0], vs[1], vs[2])
		return wrapStrategy(err)

	case op.Pop, op.Pop2, op.Dup, op.DupX1, op.DupX2, op.Dup2, op.Dup2X1,
		op.Dup2X2, op.Swap:
		return f.shuffle(insn, interp)

	case op.Iaload, op.Laload, op.Faload, op.Daload, op.Aaload, op.Baload,
		op.Caload, op.Saload,
		op.Iadd, op.Ladd, op.Fadd, op.Dadd, op.Isub, op.Lsub, op.Fsub, op.Dsub,
		op.Imul, op.Lmul, op.Fmul, op.Dmul, op.Idiv, op.Ldiv, op.Fdiv, op.Ddiv,
		op.Irem, op.Lrem, op.Frem, op.Drem,
		op.Ishl, op.Lshl, op.Ishr, op.Lshr, op.Iushr, op.Lushr,
		op.Iand, op.Land, op.Ior, op.Lor, op.Ixor, op.Lxor,
		op.Lcmp, op.Fcmpl, op.Fcmpg, op.Dcmpl, op.Dcmpg:
		vs, err := f.popN(2)
		if err != nil {
			return err
		}
		return f.pushResult(interp.BinaryOperation(insn, vs[0], vs[1]))

	case op.Ineg, op.Lneg, op.Fneg, op.Dneg,
		op.I2l, op.I2f, op.I2d, op.L2i, op.L2f, op.L2d, op.F2i, op.F2l, op.F2d,
		op.D2i, op.D2l, op.D2f, op.I2b, op.I2c, op.I2s,
		op.Getfield, op.Newarray, op.Anewarray, op.Arraylength,
		op.Checkcast, op.Instanceof:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		return f.pushResult(interp.UnaryOperation(insn, v))

	case op.Iinc:
		v, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		r, err := interp.UnaryOperation(insn, v)
		if err != nil {
			return wrapStrategy(err)
		}
		return f.SetLocal(insn.Var, r)

	case op.Ifeq, op.Ifne, op.Iflt, op.Ifge, op.Ifgt, op.Ifle,
		op.Ifnull, op.Ifnonnull, op.Tableswitch, op.Lookupswitch,
		op.Putstatic, op.Athrow, op.Monitorenter, op.Monitorexit:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		_, err = interp.UnaryOperation(insn, v)
		return wrapStrategy(err)

	case op.IfIcmpeq, op.IfIcmpne, op.IfIcmplt, op.IfIcmpge, op.IfIcmpgt,
		op.IfIcmple, op.IfAcmpeq, op.IfAcmpne, op.Putfield:
		vs, err := f.popN(2)
		if err != nil {
			return err
		}
		_, err = interp.BinaryOperation(insn, vs[0], vs[1])
		return wrapStrategy(err)

	case op.Ireturn, op.Lreturn, op.Freturn, op.Dreturn, op.Areturn:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		if _, err := interp.UnaryOperation(insn, v); err != nil {
			return wrapStrategy(err)
		}
		if !f.hasReturn {
			return errors.NewAnalysisError(errors.E2007,
				"%s in a method returning void", code)
		}
		return wrapStrategy(interp.ReturnOperation(insn, v, f.returnValue))

	case op.Return:
		if f.hasReturn {
			return errors.NewAnalysisError(errors.E2007,
				"return in a method returning a value")
		}
		return nil

	case op.Invokevirtual, op.Invokespecial, op.Invokestatic,
		op.Invokeinterface, op.Invokedynamic:
		return f.invoke(insn, interp)

	case op.Multianewarray:
		vs, err := f.popN(int(insn.Int))
		if err != nil {
			return err
		}
		return f.pushResult(interp.NaryOperation(insn, vs))

	default:
		return errors.NewAnalysisError(errors.E1004, "illegal opcode %d", uint8(code))
	}
}

func (f *Frame[V]) store(insn Insn, interp Interpreter[V]) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	c, err := interp.CopyOperation(insn, v)
	if err != nil {
		return wrapStrategy(err)
	}
	if err := f.SetLocal(insn.Var, c); err != nil {
		return err
	}
	if c.Size() == 2 {
		if err := f.SetLocal(insn.Var+1, interp.NewEmptyValue(insn.Var+1)); err != nil {
			return err
		}
	}
	if insn.Var > 0 {
		if prev := f.locals[insn.Var-1]; prev.Size() == 2 {
			f.locals[insn.Var-1] = interp.NewEmptyValue(insn.Var - 1)
		}
	}
	return nil
}

func (f *Frame[V]) invoke(insn Insn, interp Interpreter[V]) error {
	args, err := desc.ArgumentTypes(insn.Desc)
	if err != nil {
		return &errors.AnalysisError{Code: errors.E1006, Index: -1, Err: err}
	}
	ret, err := desc.ReturnType(insn.Desc)
	if err != nil {
		return &errors.AnalysisError{Code: errors.E1006, Index: -1, Err: err}
	}
	n := len(args)
	if insn.Opcode != op.Invokestatic && insn.Opcode != op.Invokedynamic {
		n++
	}
	vs, err := f.popN(n)
	if err != nil {
		return err
	}
	v, err := interp.NaryOperation(insn, vs)
	if err != nil {
		return wrapStrategy(err)
	}
	if ret.Sort() == desc.Void {
		return nil
	}
	return f.Push(v)
}

// shuffle executes the pop, dup and swap families. The shape of each is
// fixed by the sizes of the values on the stack; every pushed position is a
// separate CopyOperation result.
func (f *Frame[V]) shuffle(insn Insn, interp Interpreter[V]) error {
	code := insn.Opcode
	illegal := func() error {
		return errors.NewAnalysisError(errors.E2004, "illegal use of %s", code)
	}
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	switch code {
	case op.Pop:
		if v1.Size() == 2 {
			return illegal()
		}
		return nil

	case op.Pop2:
		if v1.Size() == 1 {
			v2, err := f.Pop()
			if err != nil {
				return err
			}
			if v2.Size() != 1 {
				return illegal()
			}
		}
		return nil

	case op.Dup:
		if v1.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v1, v1)

	case op.DupX1:
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() != 1 || v2.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v1, v2, v1)

	case op.DupX2:
		if v1.Size() != 1 {
			return illegal()
		}
		return f.dupX2(insn, interp, v1)

	case op.Dup2:
		if v1.Size() == 2 {
			return f.pushCopies(insn, interp, v1, v1)
		}
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v2, v1, v2, v1)

	case op.Dup2X1:
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			if v2.Size() != 1 {
				return illegal()
			}
			return f.pushCopies(insn, interp, v1, v2, v1)
		}
		if v2.Size() != 1 {
			return illegal()
		}
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		if v3.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v2, v1, v3, v2, v1)

	case op.Dup2X2:
		if v1.Size() == 2 {
			return f.dupX2(insn, interp, v1)
		}
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 {
			return illegal()
		}
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		if v3.Size() == 2 {
			return f.pushCopies(insn, interp, v2, v1, v3, v2, v1)
		}
		v4, err := f.Pop()
		if err != nil {
			return err
		}
		if v4.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v2, v1, v4, v3, v2, v1)

	case op.Swap:
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() != 1 || v2.Size() != 1 {
			return illegal()
		}
		return f.pushCopies(insn, interp, v1, v2)
	}
	return illegal()
}

// dupX2 inserts a copy of v1 below the next one or two values, depending on
// whether the value below v1 is wide. dup2_x2 with a wide v1 has the same
// shape.
func (f *Frame[V]) dupX2(insn Insn, interp Interpreter[V], v1 V) error {
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	if v2.Size() == 2 {
		return f.pushCopies(insn, interp, v1, v2, v1)
	}
	v3, err := f.Pop()
	if err != nil {
		return err
	}
	if v3.Size() != 1 {
		return errors.NewAnalysisError(errors.E2004, "illegal use of %s", insn.Opcode)
	}
	return f.pushCopies(insn, interp, v1, v3, v2, v1)
}

func (f *Frame[V]) pushCopies(insn Insn, interp Interpreter[V], vs ...V) error {
	for _, v := range vs {
		if err := f.pushResult(interp.CopyOperation(insn, v)); err != nil {
			return err
		}
	}
	return nil
}

// popN pops n values and returns them in stack order, deepest first.
func (f *Frame[V]) popN(n int) ([]V, error) {
	if n < 0 || n > len(f.stack) {
		return nil, errors.NewAnalysisError(errors.E2001,
			"cannot pop %d operands off a stack of %d", n, len(f.stack))
	}
	vs := make([]V, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (f *Frame[V]) pushResult(v V, err error) error {
	if err != nil {
		return wrapStrategy(err)
	}
	return f.Push(v)
}

// String renders the locals followed by a space and the stack, each value
// formatted with fmt.
func (f *Frame[V]) String() string {
	var b strings.Builder
	for _, v := range f.locals {
		b.WriteString(fmt.Sprint(v))
	}
	b.WriteByte(' ')
	for _, v := range f.stack {
		b.WriteString(fmt.Sprint(v))
	}
	return b.String()
}

// strategyError marks an error returned by an Interpreter so it can be
// handed back to the caller unchanged.
type strategyError struct {
	err error
}

func (e strategyError) Error() string { return e.err.Error() }

func wrapStrategy(err error) error {
	if err == nil {
		return nil
	}
	return strategyError{err}
}

func unwrapStrategy(err error) error {
	if se, ok := err.(strategyError); ok {
		return se.err
	}
	return err
}

// stampError returns interpreter errors unchanged and ties analysis errors
// to the instruction and method they occurred in.
func stampError(err error, insn Insn, method string) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(strategyError); ok {
		return se.err
	}
	if ae, ok := err.(*errors.AnalysisError); ok {
		if ae.Index < 0 {
			ae.Index = insn.Index
			ae.Insn = insn.Instruction.String()
		}
		if ae.Method == "" {
			ae.Method = method
		}
	}
	return err
}
