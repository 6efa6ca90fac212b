package analysis

import (
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/op"
)

// MaxStackLimit is the largest operand stack a method may declare. It is
// the stack bound used while recomputing maximums.
const MaxStackLimit = 65535

// AnalyzeAndComputeMaxs analyzes m ignoring its declared maximums. The
// number of locals is recomputed from the descriptor and the local variable
// instructions, and the maximum stack size is the largest stack height of
// any frame. Both are available from the Result.
func (a *Analyzer[V]) AnalyzeAndComputeMaxs(m *bytecode.Method) (*Result[V], error) {
	maxLocals, err := ComputeMaxLocals(m)
	if err != nil {
		return nil, err
	}
	result, err := a.analyze(m, maxLocals, MaxStackLimit)
	if err != nil {
		return nil, err
	}
	result.maxStack = computeMaxStack(result.frames)
	return result, nil
}

// ComputeMaxLocals returns the number of local slots m needs: its receiver
// and parameters, and every slot a local variable instruction touches.
func ComputeMaxLocals(m *bytecode.Method) (int, error) {
	maxLocals, err := desc.ArgumentsSize(m.Desc())
	if err != nil {
		return 0, &errors.AnalysisError{Code: errors.E1006, Index: -1, Method: m.String(), Err: err}
	}
	if !m.IsStatic() {
		maxLocals++
	}
	for i := 0; i < m.InstructionCount(); i++ {
		insn := m.InstructionAt(i)
		switch op.GetInfo(insn.Opcode).Operand {
		case op.OperandVar:
			size := 1
			if insn.Opcode.IsWide() {
				size = 2
			}
			maxLocals = max(maxLocals, insn.Var+size)
		case op.OperandIinc:
			maxLocals = max(maxLocals, insn.Var+1)
		}
	}
	return maxLocals, nil
}

func computeMaxStack[V Value](frames []*Frame[V]) int {
	maxStack := 0
	for _, f := range frames {
		if f != nil {
			maxStack = max(maxStack, f.StackSlots())
		}
	}
	return maxStack
}
