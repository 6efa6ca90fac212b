package analysis

import (
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/op"
)

// EdgeKind classifies a normal control-flow edge.
type EdgeKind uint8

const (
	// EdgeFallthrough continues to the next instruction.
	EdgeFallthrough EdgeKind = iota

	// EdgeJump is a branch, goto or switch target.
	EdgeJump

	// EdgeCall enters a subroutine through jsr.
	EdgeCall

	// EdgeReturn leaves a subroutine through ret, continuing after the jsr.
	EdgeReturn
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeFallthrough:
		return "fallthrough"
	case EdgeJump:
		return "jump"
	case EdgeCall:
		return "call"
	case EdgeReturn:
		return "return"
	default:
		return "unknown"
	}
}

// StepEvent describes one instruction taken from the worklist.
type StepEvent struct {
	// Index is the instruction index.
	Index int

	// Opcode is the instruction's opcode.
	Opcode op.Code

	// StackSlots is the stack height in slots before the instruction.
	StackSlots int

	// Iteration counts worklist steps from 1.
	Iteration int
}

// EdgeEvent describes a normal control-flow edge.
type EdgeEvent struct {
	From int
	To   int
	Kind EdgeKind
}

// ExceptionEdgeEvent describes an edge from a guarded instruction to a
// handler.
type ExceptionEdgeEvent struct {
	From    int
	Handler bytecode.ExceptionHandler
}

// Observer is notified of analysis progress. Edges are reported every time
// they are propagated, so the same edge may be seen several times.
//
// Observer methods are called synchronously during analysis.
// Implementations can embed NoOpObserver for the methods they don't need.
type Observer interface {
	// OnStep is called for each instruction taken from the worklist.
	OnStep(event StepEvent)

	// OnEdge is called for each normal edge.
	OnEdge(event EdgeEvent)

	// OnExceptionEdge is called for each exception edge. Returning false
	// drops the edge: the handler does not receive this instruction's
	// state.
	OnExceptionEdge(event ExceptionEdgeEvent) bool
}

// NoOpObserver is an Observer implementation that does nothing and keeps
// every exception edge.
type NoOpObserver struct{}

func (NoOpObserver) OnStep(StepEvent)                        {}
func (NoOpObserver) OnEdge(EdgeEvent)                        {}
func (NoOpObserver) OnExceptionEdge(ExceptionEdgeEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}
