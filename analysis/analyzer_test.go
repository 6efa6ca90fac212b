package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/op"
)

func build(t *testing.T, b *bytecode.Builder) *bytecode.Method {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func analyzeBasic(t *testing.T, m *bytecode.Method, opts ...Option) *Result[BasicValue] {
	t.Helper()
	result, err := New[BasicValue](BasicInterpreter{}, opts...).Analyze(m)
	require.NoError(t, err)
	return result
}

func analyzeSource(t *testing.T, m *bytecode.Method) *Result[SourceValue] {
	t.Helper()
	result, err := New[SourceValue](SourceInterpreter{}).Analyze(m)
	require.NoError(t, err)
	return result
}

func analyzeErr(t *testing.T, m *bytecode.Method, code errors.ErrorCode, index int) *errors.AnalysisError {
	t.Helper()
	_, err := New[BasicValue](BasicInterpreter{}).Analyze(m)
	ae := requireCode(t, err, code)
	require.Equal(t, index, ae.Index, ae.Error())
	require.Equal(t, m.String(), ae.Method)
	return ae
}

func stackValue[V Value](t *testing.T, f *Frame[V], i int) V {
	t.Helper()
	require.NotNil(t, f)
	v, err := f.Stack(i)
	require.NoError(t, err)
	return v
}

func localValue[V Value](t *testing.T, f *Frame[V], i int) V {
	t.Helper()
	require.NotNil(t, f)
	v, err := f.Local(i)
	require.NoError(t, err)
	return v
}

// dupX2Method pushes two ints and then -1 or 0 depending on a branch, and
// duplicates the top value under the two others.
func dupX2Method(t *testing.T) *bytecode.Method {
	b := bytecode.NewBuilder("C", "m", "()V", 0).MaxStack(4).MaxLocals(1)
	l0, l1 := b.NewLabel(), b.NewLabel()
	b.Op(op.Iconst0)
	b.Op(op.Iconst0)
	b.Op(op.Iconst0)
	b.Jump(op.Ifne, l0)       // 3
	b.Op(op.IconstM1)         // 4
	b.Jump(op.Goto, l1)       // 5
	b.Mark(l0).Op(op.Iconst0) // 6
	b.Mark(l1).Op(op.DupX2)   // 7
	b.Op(op.Pop).Op(op.Pop).Op(op.Pop).Op(op.Pop)
	b.Op(op.Return)
	return build(t, b)
}

func TestSourceDupX2Producers(t *testing.T) {
	result := analyzeSource(t, dupX2Method(t))

	join := result.Frame(7)
	require.Equal(t, 3, join.StackSize())
	require.Equal(t, []int{4, 6}, stackValue(t, join, 2).Producers())

	afterDup := result.Frame(8)
	require.Equal(t, 4, afterDup.StackSize())
	for i := 0; i < afterDup.StackSize(); i++ {
		require.Equal(t, []int{7}, stackValue(t, afterDup, i).Producers(), "stack slot %d", i)
	}
}

func TestSourceLocalProducers(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "(Z)I", bytecode.AccStatic).MaxStack(1).MaxLocals(2)
	zero, join := b.NewLabel(), b.NewLabel()
	b.Var(op.Iload, 0)
	b.Jump(op.Ifeq, zero)
	b.Op(op.IconstM1)
	b.Var(op.Istore, 1) // 3
	b.Jump(op.Goto, join)
	b.Mark(zero).Op(op.Iconst0)
	b.Var(op.Istore, 1)           // 6
	b.Mark(join).Var(op.Iload, 1) // 7
	b.Op(op.Ireturn)
	result := analyzeSource(t, build(t, b))

	local := localValue(t, result.Frame(7), 1)
	require.Equal(t, []int{3, 6}, local.Producers())
	require.True(t, local.ProducedBy(3))
	require.False(t, local.ProducedBy(5))
	require.Equal(t, "{3,6}", local.String())

	require.Equal(t, []int{7}, stackValue(t, result.Frame(8), 0).Producers())
	require.Empty(t, localValue(t, result.Frame(0), 0).Producers())
}

func TestEntryFrame(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "(JLjava/lang/String;)V", 0).MaxStack(0).MaxLocals(5)
	b.Op(op.Return)
	result := analyzeBasic(t, build(t, b))

	entry := result.Frame(0)
	require.Equal(t, "RJ.R. ", entry.String())
	_, hasReturn := entry.Return()
	require.False(t, hasReturn)

	b = bytecode.NewBuilder("C", "m", "()D", bytecode.AccStatic).MaxStack(2).MaxLocals(0)
	b.Op(op.Dconst0).Op(op.Dreturn)
	result = analyzeBasic(t, build(t, b))
	ret, hasReturn := result.Frame(0).Return()
	require.True(t, hasReturn)
	require.Equal(t, Double, ret)
}

func TestEntryFrameTooFewLocals(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "(J)V", bytecode.AccStatic).MaxStack(0).MaxLocals(1)
	b.Op(op.Return)
	analyzeErr(t, build(t, b), errors.E2003, -1)
}

func TestExceptionHandlerStack(t *testing.T) {
	handlerMethod := func(t *testing.T) *bytecode.Method {
		b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(3).MaxLocals(1)
		start, end, handler := b.NewLabel(), b.NewLabel(), b.NewLabel()
		b.Mark(start).
			Op(op.Iconst1). // 0
			Op(op.Iconst2).
			Op(op.Iconst3).
			Op(op.Pop).
			Op(op.Pop).
			Op(op.Pop). // 5
			Mark(end).Op(op.Return).
			Mark(handler).Var(op.Astore, 0). // 7
			Op(op.Return).
			Handler(start, end, handler, "java/io/IOException")
		return build(t, b)
	}

	t.Run("handler sees only the exception", func(t *testing.T) {
		result := analyzeBasic(t, handlerMethod(t))
		h := result.Frame(7)
		require.NotNil(t, h)
		require.Equal(t, 1, h.StackSize())
		require.Equal(t, 1, h.StackSlots())
		require.Equal(t, Reference, stackValue(t, h, 0))
		require.Equal(t, Uninitialized, localValue(t, h, 0))
		require.Equal(t, Reference, localValue(t, result.Frame(8), 0))

		require.Len(t, result.Handlers(3), 1)
		require.Equal(t, "java/io/IOException", result.Handlers(3)[0].Type)
		require.Empty(t, result.Handlers(6))
	})

	t.Run("dropped exception edges", func(t *testing.T) {
		obs := &recordingObserver{dropExceptions: true}
		result := analyzeBasic(t, handlerMethod(t), WithObserver(obs))
		require.Nil(t, result.Frame(7))
		require.Equal(t, []int{7, 8}, result.Unreachable())
		require.Len(t, obs.exceptionEdges, 6)
	})
}

func TestUnreachableCode(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(0).MaxLocals(0)
	end := b.NewLabel()
	b.Jump(op.Goto, end).Op(op.Nop).Mark(end).Op(op.Return)
	result := analyzeBasic(t, build(t, b))

	require.Equal(t, 3, result.FrameCount())
	require.True(t, result.Reachable(0))
	require.False(t, result.Reachable(1))
	require.Nil(t, result.Frame(1))
	require.Equal(t, []int{1}, result.Unreachable())
}

// countdownMethod counts its argument down to zero and returns the number
// of iterations.
func countdownMethod(t *testing.T) *bytecode.Method {
	b := bytecode.NewBuilder("C", "count", "(I)I", bytecode.AccStatic).MaxStack(1).MaxLocals(2)
	loop, done := b.NewLabel(), b.NewLabel()
	b.Op(op.Iconst0)
	b.Var(op.Istore, 1)           // 1
	b.Mark(loop).Var(op.Iload, 0) // 2
	b.Jump(op.Ifle, done)         // 3
	b.Iinc(1, 1)                  // 4
	b.Iinc(0, -1)                 // 5
	b.Jump(op.Goto, loop)         // 6
	b.Mark(done).Var(op.Iload, 1) // 7
	b.Op(op.Ireturn)
	return build(t, b)
}

func TestLoopReachesFixedPoint(t *testing.T) {
	m := countdownMethod(t)

	basic := analyzeBasic(t, m)
	require.Equal(t, "II ", basic.Frame(2).String())
	require.Equal(t, "II I", basic.Frame(8).String())
	require.Empty(t, basic.Unreachable())
	require.Greater(t, basic.Iterations(), m.InstructionCount()-1)

	source := analyzeSource(t, m)
	require.Equal(t, []int{1, 4}, localValue(t, source.Frame(2), 1).Producers())
	require.Equal(t, []int{5}, localValue(t, source.Frame(2), 0).Producers())

	requireStable(t, basic, BasicInterpreter{})
	requireStable(t, source, SourceInterpreter{})
}

// requireStable checks that the frames of a result are a fixed point:
// executing any reachable instruction and merging into its successors
// changes nothing.
func requireStable[V Value](t *testing.T, result *Result[V], interp Interpreter[V]) {
	t.Helper()
	m := result.Method()
	for i := 0; i < result.FrameCount(); i++ {
		f := result.Frame(i)
		if f == nil {
			continue
		}
		insn := Insn{Index: i, Instruction: m.InstructionAt(i)}
		if insn.Opcode == op.Jsr || insn.Opcode == op.Ret {
			continue
		}
		after := f.Clone()
		require.NoError(t, after.Execute(insn, interp))

		succ := insn.Successors()
		if !insn.Opcode.Terminates() {
			succ = append(succ, i+1)
		}
		for _, s := range succ {
			target := result.Frame(s).Clone()
			changed, err := target.Merge(after, interp)
			require.NoError(t, err)
			require.False(t, changed, "merging %d into %d changed the frame", i, s)
		}

		again := f.Clone()
		changed, err := again.Merge(f, interp)
		require.NoError(t, err)
		require.False(t, changed, "merging frame %d with itself", i)
	}
}

func TestSubroutine(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(1).MaxLocals(2)
	sub := b.NewLabel()
	b.Op(op.Iconst5)
	b.Var(op.Istore, 0)
	b.Jump(op.Jsr, sub) // 2
	b.Var(op.Iload, 0)  // 3
	b.Op(op.Pop)
	b.Op(op.Return)
	b.Mark(sub).Var(op.Astore, 1) // 6
	b.Var(op.Ret, 1)              // 7
	obs := &recordingObserver{}
	result := analyzeBasic(t, build(t, b), WithObserver(obs))

	require.Empty(t, result.Unreachable())
	require.Equal(t, ReturnAddress, stackValue(t, result.Frame(6), 0))
	require.Equal(t, ReturnAddress, localValue(t, result.Frame(7), 1))

	cont := result.Frame(3)
	require.Equal(t, 0, cont.StackSize())
	require.Equal(t, Int, localValue(t, cont, 0))
	require.Equal(t, ReturnAddress, localValue(t, cont, 1))

	require.Contains(t, obs.edges, EdgeEvent{From: 2, To: 6, Kind: EdgeCall})
	require.Contains(t, obs.edges, EdgeEvent{From: 7, To: 3, Kind: EdgeReturn})
	require.NotContains(t, obs.edges, EdgeEvent{From: 2, To: 3, Kind: EdgeFallthrough})
}

func TestSubroutineKeepsCallerLocals(t *testing.T) {
	// The subroutine never touches local 0, so the caller's value for it
	// survives the ret.
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(1).MaxLocals(2)
	sub := b.NewLabel()
	b.Op(op.Fconst0)
	b.Var(op.Fstore, 0)
	b.Jump(op.Jsr, sub)
	b.Var(op.Fload, 0) // 3
	b.Op(op.Pop)
	b.Op(op.Return)
	b.Mark(sub).Var(op.Astore, 1) // 6
	b.Var(op.Ret, 1)
	result := analyzeBasic(t, build(t, b))
	require.Equal(t, Float, localValue(t, result.Frame(3), 0))
	require.Equal(t, Uninitialized, localValue(t, result.Frame(6), 1))
}

func TestSubroutineCallSitesStayDistinct(t *testing.T) {
	// Local 0 holds an int at the first call and a float at the second.
	// Each continuation gets back its own caller's value.
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(1).MaxLocals(2)
	sub := b.NewLabel()
	b.Op(op.Iconst0).Var(op.Istore, 0).Jump(op.Jsr, sub)
	b.Var(op.Iload, 0).Op(op.Pop)
	b.Op(op.Fconst0).Var(op.Fstore, 0).Jump(op.Jsr, sub)
	b.Var(op.Fload, 0).Op(op.Pop).Op(op.Return)
	b.Mark(sub).Var(op.Astore, 1).Var(op.Ret, 1)
	obs := &recordingObserver{}
	result := analyzeBasic(t, build(t, b), WithObserver(obs))

	require.Empty(t, result.Unreachable())
	require.Equal(t, Int, localValue(t, result.Frame(3), 0))
	require.Equal(t, Float, localValue(t, result.Frame(8), 0))
	require.Equal(t, ReturnAddress, localValue(t, result.Frame(3), 1))
	require.Equal(t, ReturnAddress, localValue(t, result.Frame(8), 1))

	// Inside the subroutine both callers meet.
	require.Equal(t, Uninitialized, localValue(t, result.Frame(11), 0))
	require.Equal(t, ReturnAddress, stackValue(t, result.Frame(11), 0))

	require.Contains(t, obs.edges, EdgeEvent{From: 12, To: 3, Kind: EdgeReturn})
	require.Contains(t, obs.edges, EdgeEvent{From: 12, To: 8, Kind: EdgeReturn})
	requireStable(t, result, BasicInterpreter{})
}

func TestNestedSubroutines(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic).MaxStack(1).MaxLocals(4)
	outer, inner := b.NewLabel(), b.NewLabel()
	b.Op(op.Iconst1).Var(op.Istore, 3)
	b.Jump(op.Jsr, outer)
	b.Var(op.Iload, 3).Op(op.Pop).Op(op.Return)
	b.Mark(outer).Var(op.Astore, 1) // 6
	b.Jump(op.Jsr, inner)
	b.Var(op.Ret, 1)
	b.Mark(inner).Var(op.Astore, 2) // 9
	b.Var(op.Ret, 2)
	obs := &recordingObserver{}
	result := analyzeBasic(t, build(t, b), WithObserver(obs))
	require.Empty(t, result.Unreachable())

	// After the inner ret: the inner subroutine's locals come from the ret
	// frame, the outer return address from the frame before the inner jsr.
	back := result.Frame(8)
	require.Equal(t, 0, back.StackSize())
	require.Equal(t, ReturnAddress, localValue(t, back, 1))
	require.Equal(t, ReturnAddress, localValue(t, back, 2))
	require.Equal(t, Int, localValue(t, back, 3))

	// After the outer ret: local 1 was used by the outer subroutine and
	// local 2 only by the inner one, so local 2 comes from the main code.
	cont := result.Frame(3)
	require.Equal(t, ReturnAddress, localValue(t, cont, 1))
	require.Equal(t, Uninitialized, localValue(t, cont, 2))
	require.Equal(t, Int, localValue(t, cont, 3))

	require.Contains(t, obs.edges, EdgeEvent{From: 7, To: 9, Kind: EdgeCall})
	require.Contains(t, obs.edges, EdgeEvent{From: 10, To: 8, Kind: EdgeReturn})
	require.Contains(t, obs.edges, EdgeEvent{From: 8, To: 3, Kind: EdgeReturn})
	requireStable(t, result, BasicInterpreter{})
}

func TestSwitches(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "(I)I", bytecode.AccStatic).MaxStack(1).MaxLocals(1)
	one, two, dflt := b.NewLabel(), b.NewLabel(), b.NewLabel()
	b.Var(op.Iload, 0).
		TableSwitch(0, dflt, one, two).
		Mark(one).Op(op.Iconst1).Op(op.Ireturn).
		Mark(two).Var(op.Iload, 0).LookupSwitch(dflt, []int32{7}, []bytecode.Label{one}).
		Mark(dflt).Op(op.Iconst0).Op(op.Ireturn)
	result := analyzeBasic(t, build(t, b))
	require.Empty(t, result.Unreachable())
	for _, i := range []int{2, 4, 6} {
		require.Equal(t, 0, result.Frame(i).StackSize(), "frame %d", i)
	}
	require.Equal(t, "I I", result.Frame(5).String())
}

func TestBasicObjectCode(t *testing.T) {
	b := bytecode.NewBuilder("C", "describe", "(Ljava/lang/String;)Ljava/lang/Object;", 0).
		MaxStack(3).MaxLocals(2)
	b.Type(op.New, "java/lang/StringBuilder")
	b.Op(op.Dup)
	b.Var(op.Aload, 1)
	b.Invoke(op.Invokespecial, "java/lang/StringBuilder", "<init>", "(Ljava/lang/String;)V", false) // 3
	b.Field(op.Getstatic, "C", "count", "I")
	b.Op(op.I2l)
	b.Invoke(op.Invokevirtual, "java/lang/StringBuilder", "append", "(J)Ljava/lang/StringBuilder;", false) // 6
	b.Invoke(op.Invokevirtual, "java/lang/StringBuilder", "toString", "()Ljava/lang/String;", false)
	b.Op(op.Areturn) // 8
	m := build(t, b)
	result := analyzeBasic(t, m)

	require.Equal(t, "RR RRR", result.Frame(3).String())
	require.Equal(t, "RR R", result.Frame(4).String())
	require.Equal(t, "RR RI", result.Frame(5).String())
	require.Equal(t, "RR RJ", result.Frame(6).String())
	require.Equal(t, 3, result.Frame(6).StackSlots())
	require.Equal(t, "RR R", result.Frame(8).String())

	computed, err := New[BasicValue](BasicInterpreter{}).AnalyzeAndComputeMaxs(m)
	require.NoError(t, err)
	require.Equal(t, 3, computed.MaxStack())
	require.Equal(t, 2, computed.MaxLocals())
}

func TestAbstractMethod(t *testing.T) {
	m := bytecode.NewMethod(bytecode.MethodParams{
		Owner:  "C",
		Name:   "run",
		Desc:   "()V",
		Access: bytecode.AccPublic | bytecode.AccAbstract,
	})
	result := analyzeBasic(t, m)
	require.Equal(t, 0, result.FrameCount())
	require.Empty(t, result.Unreachable())
	require.Nil(t, result.Handlers(0))
	require.Nil(t, result.Frame(0))
	require.False(t, result.Reachable(0))
}

func TestResultIndexOutOfRange(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "()V", bytecode.AccStatic)
	b.Op(op.Return)
	result := analyzeBasic(t, build(t, b))
	require.NotNil(t, result.Frame(0))
	for _, i := range []int{-1, 1, 100} {
		require.Nil(t, result.Frame(i), "frame %d", i)
		require.False(t, result.Reachable(i), "reachable %d", i)
		require.Nil(t, result.Handlers(i), "handlers %d", i)
	}
}

func TestAnalysisErrors(t *testing.T) {
	static := func(d string, maxStack, maxLocals int) *bytecode.Builder {
		return bytecode.NewBuilder("C", "m", d, bytecode.AccStatic).MaxStack(maxStack).MaxLocals(maxLocals)
	}

	t.Run("stack underflow", func(t *testing.T) {
		ae := analyzeErr(t, build(t, static("()V", 1, 0).Op(op.Pop).Op(op.Return)), errors.E2001, 0)
		require.Equal(t, "pop", ae.Insn)
		require.Equal(t, errors.KindStack, ae.Kind())
	})
	t.Run("stack overflow", func(t *testing.T) {
		b := static("()V", 1, 0).Op(op.Iconst0).Op(op.Iconst0).Op(op.Pop).Op(op.Pop).Op(op.Return)
		analyzeErr(t, build(t, b), errors.E2002, 1)
	})
	t.Run("local out of range", func(t *testing.T) {
		b := static("()V", 1, 1).Var(op.Iload, 3).Op(op.Pop).Op(op.Return)
		analyzeErr(t, build(t, b), errors.E2003, 0)
	})
	t.Run("wrong category", func(t *testing.T) {
		b := static("()V", 2, 0).Op(op.Lconst0).Op(op.Pop).Op(op.Return)
		analyzeErr(t, build(t, b), errors.E2004, 1)
	})
	t.Run("stack heights differ", func(t *testing.T) {
		b := static("(I)V", 1, 1)
		end := b.NewLabel()
		b.Var(op.Iload, 0).Jump(op.Ifeq, end).Op(op.Iconst0).Mark(end).Op(op.Return)
		analyzeErr(t, build(t, b), errors.E2005, 2)
	})
	t.Run("stack value sizes differ", func(t *testing.T) {
		b := static("(I)V", 2, 1)
		other, join := b.NewLabel(), b.NewLabel()
		b.Var(op.Iload, 0).Jump(op.Ifeq, other).
			Op(op.Iconst0).Jump(op.Goto, join).
			Mark(other).Op(op.Lconst0).
			Mark(join).Op(op.Return)
		_, err := New[BasicValue](BasicInterpreter{}).Analyze(build(t, b))
		requireCode(t, err, errors.E2006)
	})
	t.Run("return type", func(t *testing.T) {
		analyzeErr(t, build(t, static("()I", 0, 0).Op(op.Return)), errors.E2007, 0)
	})
	t.Run("falls off the end", func(t *testing.T) {
		ae := analyzeErr(t, build(t, static("()V", 0, 0).Op(op.Nop).Op(op.Nop)), errors.E1003, 1)
		require.Equal(t, errors.KindStructural, ae.Kind())
		require.Equal(t, "nop", ae.Insn)
		require.Equal(t, "next index 2 is past the last instruction", ae.Message)
		require.Equal(t, 1, strings.Count(ae.Error(), errors.E1003.Description()), ae.Error())
	})
	t.Run("empty body", func(t *testing.T) {
		ae := analyzeErr(t, build(t, static("()V", 0, 0)), errors.E1003, -1)
		require.Equal(t, "method has no instructions", ae.Message)
	})
	t.Run("ret outside subroutine", func(t *testing.T) {
		ae := analyzeErr(t, build(t, static("()V", 0, 1).Var(op.Ret, 0)), errors.E1005, 0)
		require.Equal(t, "local 0 holds no return address from a jsr", ae.Message)
		require.Equal(t, 1, strings.Count(ae.Error(), errors.E1005.Description()), ae.Error())
	})
	t.Run("target out of range", func(t *testing.T) {
		m := bytecode.NewMethod(bytecode.MethodParams{
			Owner:        "C",
			Name:         "m",
			Desc:         "()V",
			Access:       bytecode.AccStatic,
			Instructions: []bytecode.Instruction{{Opcode: op.Goto, Target: 5}},
		})
		analyzeErr(t, m, errors.E1001, 0)
	})
	t.Run("invalid handler", func(t *testing.T) {
		m := bytecode.NewMethod(bytecode.MethodParams{
			Owner:        "C",
			Name:         "m",
			Desc:         "()V",
			Access:       bytecode.AccStatic,
			Instructions: []bytecode.Instruction{{Opcode: op.Return}},
			Handlers:     []bytecode.ExceptionHandler{{Start: 0, End: 3, Handler: 0}},
		})
		analyzeErr(t, m, errors.E1002, -1)
	})
	t.Run("illegal opcode", func(t *testing.T) {
		m := bytecode.NewMethod(bytecode.MethodParams{
			Owner:        "C",
			Name:         "m",
			Desc:         "()V",
			Access:       bytecode.AccStatic,
			Instructions: []bytecode.Instruction{{Opcode: op.Return}, {Opcode: op.Code(0xfe)}},
		})
		analyzeErr(t, m, errors.E1004, 1)
	})
	t.Run("malformed descriptor", func(t *testing.T) {
		analyzeErr(t, build(t, static("(Q)V", 0, 1).Op(op.Return)), errors.E1006, -1)
	})
}

var errBoom = fmt.Errorf("boom")

// failingInterpreter rejects integer additions.
type failingInterpreter struct {
	BasicInterpreter
}

func (f failingInterpreter) BinaryOperation(insn Insn, v1, v2 BasicValue) (BasicValue, error) {
	if insn.Opcode == op.Iadd {
		return BasicInvalid, errBoom
	}
	return f.BasicInterpreter.BinaryOperation(insn, v1, v2)
}

func TestInterpreterErrorsAreReturnedUnchanged(t *testing.T) {
	b := bytecode.NewBuilder("C", "m", "()I", bytecode.AccStatic).MaxStack(2).MaxLocals(0)
	b.Op(op.Iconst1).Op(op.Iconst2).Op(op.Iadd).Op(op.Ireturn)
	_, err := New[BasicValue](failingInterpreter{}).Analyze(build(t, b))
	require.ErrorIs(t, err, errBoom)
	require.True(t, err == errBoom, "got %#v", err)
	_, ok := errors.AsAnalysisError(err)
	require.False(t, ok)
}

type recordingObserver struct {
	NoOpObserver
	dropExceptions bool
	steps          []StepEvent
	edges          []EdgeEvent
	exceptionEdges []ExceptionEdgeEvent
}

func (o *recordingObserver) OnStep(e StepEvent) {
	o.steps = append(o.steps, e)
}

func (o *recordingObserver) OnEdge(e EdgeEvent) {
	o.edges = append(o.edges, e)
}

func (o *recordingObserver) OnExceptionEdge(e ExceptionEdgeEvent) bool {
	o.exceptionEdges = append(o.exceptionEdges, e)
	return !o.dropExceptions
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	result := analyzeBasic(t, countdownMethod(t), WithObserver(obs))

	require.Len(t, obs.steps, result.Iterations())
	for i, s := range obs.steps {
		require.Equal(t, i+1, s.Iteration)
	}
	require.Equal(t, 0, obs.steps[0].Index)
	require.Equal(t, op.Iconst0, obs.steps[0].Opcode)

	require.Contains(t, obs.edges, EdgeEvent{From: 3, To: 4, Kind: EdgeFallthrough})
	require.Contains(t, obs.edges, EdgeEvent{From: 3, To: 7, Kind: EdgeJump})
	require.Contains(t, obs.edges, EdgeEvent{From: 6, To: 2, Kind: EdgeJump})
	require.NotContains(t, obs.edges, EdgeEvent{From: 6, To: 7, Kind: EdgeFallthrough})
	require.Empty(t, obs.exceptionEdges)
}

func TestEdgeKindString(t *testing.T) {
	require.Equal(t, "fallthrough", EdgeFallthrough.String())
	require.Equal(t, "jump", EdgeJump.String())
	require.Equal(t, "call", EdgeCall.String())
	require.Equal(t, "return", EdgeReturn.String())
	require.Equal(t, "unknown", EdgeKind(9).String())
}
