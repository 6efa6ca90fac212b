package bytecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stackmap/op"
)

func TestBuilderResolvesLabels(t *testing.T) {
	b := NewBuilder("C", "abs", "(I)I", AccStatic)
	done := b.NewLabel()
	b.Var(op.Iload, 0).
		Jump(op.Ifge, done).
		Var(op.Iload, 0).Op(op.Ineg).Op(op.Ireturn).
		Mark(done).
		Var(op.Iload, 0).Op(op.Ireturn)
	m, err := b.MaxStack(1).MaxLocals(1).Build()
	require.NoError(t, err)
	require.Equal(t, 7, m.InstructionCount())
	require.Equal(t, 5, m.InstructionAt(1).Target)
	require.Equal(t, 1, m.MaxStack())
	require.Equal(t, 1, m.MaxLocals())
}

func TestBuilderSwitchesAndHandlers(t *testing.T) {
	b := NewBuilder("C", "m", "(I)V", AccStatic)
	start, end, handler := b.NewLabel(), b.NewLabel(), b.NewLabel()
	l0, l1, dflt := b.NewLabel(), b.NewLabel(), b.NewLabel()
	b.Mark(start).
		Var(op.Iload, 0).
		TableSwitch(0, dflt, l0, l1).
		Mark(l0).Op(op.Return).
		Mark(l1).Op(op.Return).
		Mark(dflt).
		Var(op.Iload, 0).
		LookupSwitch(l0, []int32{5, 9}, []Label{l1, dflt}).
		Mark(end).
		Mark(handler).
		Op(op.Athrow).
		Handler(start, end, handler, "java/lang/Exception")
	m, err := b.Build()
	require.NoError(t, err)

	ts := m.InstructionAt(1)
	require.Equal(t, int32(0), ts.Min)
	require.Equal(t, int32(1), ts.Max)
	require.Equal(t, 4, ts.Target)
	require.Equal(t, []int{2, 3}, ts.Targets)

	ls := m.InstructionAt(5)
	require.Equal(t, 2, ls.Target)
	require.Equal(t, []int{3, 4}, ls.Targets)

	require.Equal(t, ExceptionHandler{Start: 0, End: 6, Handler: 6, Type: "java/lang/Exception"}, m.HandlerAt(0))
}

func TestBuilderErrors(t *testing.T) {
	t.Run("unbound label", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.Jump(op.Goto, l)
		_, err := b.Build()
		require.ErrorContains(t, err, "not bound")
	})
	t.Run("label bound twice", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.Mark(l).Op(op.Nop).Mark(l)
		_, err := b.Build()
		require.ErrorContains(t, err, "bound twice")
	})
	t.Run("wrong operand form", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		b.Var(op.Iadd, 1)
		_, err := b.Build()
		require.ErrorContains(t, err, "operand form")
	})
	t.Run("invalid opcode", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		b.Op(op.Code(203))
		_, err := b.Build()
		require.ErrorContains(t, err, "invalid opcode")
	})
	t.Run("tableswitch range overflow", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.TableSwitch(math.MaxInt32, l, l, l).Mark(l).Op(op.Return)
		_, err := b.Build()
		require.ErrorContains(t, err, "overflows int32")
	})
	t.Run("tableswitch at the top of the range", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.TableSwitch(math.MaxInt32-1, l, l, l).Mark(l).Op(op.Return)
		m, err := b.Build()
		require.NoError(t, err)
		require.Equal(t, int32(math.MaxInt32), m.InstructionAt(0).Max)
	})
	t.Run("empty tableswitch", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.TableSwitch(0, l).Mark(l).Op(op.Return)
		_, err := b.Build()
		require.ErrorContains(t, err, "no case labels")
	})
	t.Run("mismatched lookupswitch", func(t *testing.T) {
		b := NewBuilder("C", "m", "()V", AccStatic)
		l := b.NewLabel()
		b.LookupSwitch(l, []int32{1, 2}, []Label{l})
		_, err := b.Build()
		require.Error(t, err)
	})
}
