package analysis

import "github.com/deepnoodle-ai/stackmap/bytecode"

// Result holds the frames computed for one method.
type Result[V Value] struct {
	method     *bytecode.Method
	frames     []*Frame[V]
	handlers   [][]bytecode.ExceptionHandler
	iterations int
	maxLocals  int
	maxStack   int
}

// Method returns the analyzed method.
func (r *Result[V]) Method() *bytecode.Method {
	return r.method
}

// FrameCount returns the number of frames, one per instruction. Abstract and
// native methods have none.
func (r *Result[V]) FrameCount() int {
	return len(r.frames)
}

// Frame returns the frame before the instruction at index i, or nil if the
// instruction is unreachable or i is out of range. The frame must not be
// modified.
func (r *Result[V]) Frame(i int) *Frame[V] {
	if i < 0 || i >= len(r.frames) {
		return nil
	}
	return r.frames[i]
}

// Frames returns a copy of the frame slice.
func (r *Result[V]) Frames() []*Frame[V] {
	return append([]*Frame[V](nil), r.frames...)
}

// Reachable reports whether the instruction at index i has a frame.
func (r *Result[V]) Reachable(i int) bool {
	return r.Frame(i) != nil
}

// Handlers returns the exception handlers whose range covers instruction i.
func (r *Result[V]) Handlers(i int) []bytecode.ExceptionHandler {
	if i < 0 || i >= len(r.handlers) {
		return nil
	}
	return append([]bytecode.ExceptionHandler(nil), r.handlers[i]...)
}

// Unreachable returns the indexes of the instructions that received no
// frame, in increasing order.
func (r *Result[V]) Unreachable() []int {
	var out []int
	for i, f := range r.frames {
		if f == nil {
			out = append(out, i)
		}
	}
	return out
}

// Iterations returns the number of instructions taken from the worklist.
func (r *Result[V]) Iterations() int {
	return r.iterations
}

// MaxLocals returns the number of locals used for the analysis. After
// AnalyzeAndComputeMaxs it is the recomputed value.
func (r *Result[V]) MaxLocals() int {
	return r.maxLocals
}

// MaxStack returns the maximum stack size used for the analysis. After
// AnalyzeAndComputeMaxs it is the largest stack height, in slots, of any
// frame.
func (r *Result[V]) MaxStack() int {
	return r.maxStack
}
