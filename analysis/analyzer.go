package analysis

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/op"
)

// Analyzer computes the frames of method bodies with one Interpreter. An
// Analyzer holds no per-run state and may be used by several goroutines at
// once if its Interpreter and Observer allow it.
type Analyzer[V Value] struct {
	interp Interpreter[V]
	cfg    config
}

// New returns an Analyzer using the given interpreter.
func New[V Value](interp Interpreter[V], opts ...Option) *Analyzer[V] {
	return &Analyzer[V]{interp: interp, cfg: newConfig(opts)}
}

// Interpreter returns the analyzer's interpreter.
func (a *Analyzer[V]) Interpreter() Interpreter[V] {
	return a.interp
}

// Analyze computes the frame before every instruction of m. Instructions
// that cannot be reached get a nil frame.
//
// Malformed methods are rejected with an *errors.AnalysisError. Errors
// returned by the Interpreter are returned as they are.
func (a *Analyzer[V]) Analyze(m *bytecode.Method) (*Result[V], error) {
	return a.analyze(m, m.MaxLocals(), m.MaxStack())
}

func (a *Analyzer[V]) analyze(m *bytecode.Method, maxLocals, maxStack int) (*Result[V], error) {
	logger := a.cfg.logger.With().Str("method", m.String()).Logger()
	if !m.HasCode() {
		logger.Debug().Msg("no code to analyze")
		return &Result[V]{method: m, maxLocals: maxLocals, maxStack: maxStack}, nil
	}
	r := newRun(a, m, maxLocals, maxStack, logger)
	if err := r.execute(); err != nil {
		logger.Debug().Err(err).Int("iterations", r.iterations).Msg("analysis failed")
		return nil, err
	}
	result := &Result[V]{
		method:     m,
		frames:     r.frames,
		handlers:   r.handlers,
		iterations: r.iterations,
		maxLocals:  maxLocals,
		maxStack:   maxStack,
	}
	logger.Debug().
		Int("instructions", r.n).
		Int("iterations", r.iterations).
		Int("unreachable", len(result.Unreachable())).
		Msg("analysis complete")
	return result, nil
}

// run is the state of one analysis. Frames and subroutine contexts are
// stored per instruction index.
type run[V Value] struct {
	interp      Interpreter[V]
	observer    Observer
	logger      zerolog.Logger
	method      *bytecode.Method
	name        string
	n           int
	maxLocals   int
	maxStack    int
	insns       []Insn
	handlers    [][]bytecode.ExceptionHandler
	frames      []*Frame[V]
	subroutines []*subroutine
	queued      []bool
	worklist    []int
	iterations  int
}

func newRun[V Value](a *Analyzer[V], m *bytecode.Method, maxLocals, maxStack int, logger zerolog.Logger) *run[V] {
	n := m.InstructionCount()
	r := &run[V]{
		interp:      a.interp,
		observer:    a.cfg.observer,
		logger:      logger,
		method:      m,
		name:        m.String(),
		n:           n,
		maxLocals:   maxLocals,
		maxStack:    maxStack,
		insns:       make([]Insn, n),
		handlers:    make([][]bytecode.ExceptionHandler, n),
		frames:      make([]*Frame[V], n),
		subroutines: make([]*subroutine, n),
		queued:      make([]bool, n),
	}
	for i := range r.insns {
		r.insns[i] = Insn{Index: i, Instruction: m.InstructionAt(i)}
	}
	return r
}

func (r *run[V]) execute() error {
	if err := r.validate(); err != nil {
		return err
	}
	for i := 0; i < r.method.HandlerCount(); i++ {
		h := r.method.HandlerAt(i)
		for j := h.Start; j < h.End; j++ {
			r.handlers[j] = append(r.handlers[j], h)
		}
	}
	if err := r.findSubroutines(); err != nil {
		return err
	}
	entry, err := r.entryFrame()
	if err != nil {
		return err
	}
	if _, err := r.merge(0, entry, nil); err != nil {
		return r.fail(err, -1)
	}
	return r.loop()
}

// validate checks that every jump target and handler lies inside the code
// and that every opcode is defined.
func (r *run[V]) validate() error {
	for i, insn := range r.insns {
		info := op.GetInfo(insn.Opcode)
		if info.Kind == op.KindInvalid {
			return r.fail(errors.AnalysisErrorAt(errors.E1004, i,
				"illegal opcode %d", uint8(insn.Opcode)), i)
		}
		if info.Operand == op.OperandTableSwitch && int64(insn.Max)-int64(insn.Min)+1 != int64(len(insn.Targets)) {
			return r.fail(errors.AnalysisErrorAt(errors.E1001, i,
				"tableswitch range %d..%d has %d targets", insn.Min, insn.Max, len(insn.Targets)), i)
		}
		if info.Operand == op.OperandLookupSwitch && len(insn.Keys) != len(insn.Targets) {
			return r.fail(errors.AnalysisErrorAt(errors.E1001, i,
				"lookupswitch has %d keys and %d targets", len(insn.Keys), len(insn.Targets)), i)
		}
		for _, t := range insn.Successors() {
			if t < 0 || t >= r.n {
				return r.fail(errors.AnalysisErrorAt(errors.E1001, i,
					"target %d outside of [0, %d)", t, r.n), i)
			}
		}
	}
	for k := 0; k < r.method.HandlerCount(); k++ {
		h := r.method.HandlerAt(k)
		if h.Start < 0 || h.Start >= h.End || h.End > r.n || h.Handler < 0 || h.Handler >= r.n {
			return r.fail(errors.NewAnalysisError(errors.E1002,
				"handler %d %s does not fit in %d instructions", k, h, r.n), -1)
		}
	}
	return nil
}

// findSubroutines assigns a subroutine context to every instruction that
// belongs to a subroutine. Instructions of the main code keep none.
func (r *run[V]) findSubroutines() error {
	var jsrs []int
	main := newSubroutine(-1, r.maxLocals, -1)
	if err := r.findSubroutine(0, main, &jsrs); err != nil {
		return err
	}
	found := map[int]*subroutine{}
	for len(jsrs) > 0 {
		jsr := jsrs[0]
		jsrs = jsrs[1:]
		target := r.insns[jsr].Target
		if s, ok := found[target]; ok {
			s.callers = append(s.callers, jsr)
			continue
		}
		s := newSubroutine(target, r.maxLocals, jsr)
		found[target] = s
		if err := r.findSubroutine(target, s, &jsrs); err != nil {
			return err
		}
	}
	for i, s := range r.subroutines {
		if s != nil && s.start < 0 {
			r.subroutines[i] = nil
		}
	}
	return nil
}

// findSubroutine marks every instruction reachable from start without going
// through a jsr as belonging to s, and collects the jsr instructions met.
// Falling through past the last instruction is E1003, reported at the
// instruction that falls through; an empty body has no such instruction.
func (r *run[V]) findSubroutine(start int, s *subroutine, jsrs *[]int) error {
	if r.n == 0 {
		return r.fail(errors.NewAnalysisError(errors.E1003, "method has no instructions"), -1)
	}
	type step struct{ at, from int }
	pending := []step{{at: start, from: -1}}
	push := func(from int, to ...int) {
		for _, t := range to {
			pending = append(pending, step{at: t, from: from})
		}
	}
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		i := next.at
		if i < 0 || i >= r.n {
			return r.fail(errors.NewAnalysisError(errors.E1003,
				"next index %d is past the last instruction", i), next.from)
		}
		if r.subroutines[i] != nil {
			continue
		}
		r.subroutines[i] = s.copy()
		insn := r.insns[i]
		switch {
		case insn.Opcode == op.Jsr:
			*jsrs = append(*jsrs, i)
		case insn.IsJump():
			push(i, insn.Successors()...)
		}
		for _, h := range r.handlers[i] {
			push(i, h.Handler)
		}
		if !insn.Opcode.Terminates() {
			push(i, i+1)
		}
	}
	return nil
}

// entryFrame builds the frame on method entry: the receiver, then the
// parameters, then uninitialized locals.
func (r *run[V]) entryFrame() (*Frame[V], error) {
	args, err := desc.ArgumentTypes(r.method.Desc())
	if err != nil {
		return nil, r.fail(&errors.AnalysisError{Code: errors.E1006, Index: -1, Err: err}, -1)
	}
	ret, err := desc.ReturnType(r.method.Desc())
	if err != nil {
		return nil, r.fail(&errors.AnalysisError{Code: errors.E1006, Index: -1, Err: err}, -1)
	}
	f := NewFrame[V](r.maxLocals, r.maxStack)
	local := 0
	set := func(v V) error {
		err := f.SetLocal(local, v)
		local++
		return err
	}
	if !r.method.IsStatic() {
		if err := set(r.interp.NewValue(desc.ObjectType(r.method.Owner()))); err != nil {
			return nil, r.fail(err, -1)
		}
	}
	for _, t := range args {
		if err := set(r.interp.NewValue(t)); err != nil {
			return nil, r.fail(err, -1)
		}
		if t.Size() == 2 {
			if err := set(r.interp.NewEmptyValue(local)); err != nil {
				return nil, r.fail(err, -1)
			}
		}
	}
	for local < r.maxLocals {
		_ = set(r.interp.NewEmptyValue(local))
	}
	if ret.Sort() != desc.Void {
		f.SetReturn(r.interp.NewValue(ret))
	}
	return f, nil
}

func (r *run[V]) loop() error {
	current := NewFrame[V](r.maxLocals, r.maxStack)
	for len(r.worklist) > 0 {
		i := r.worklist[len(r.worklist)-1]
		r.worklist = r.worklist[:len(r.worklist)-1]
		r.queued[i] = false
		r.iterations++

		old := r.frames[i]
		insn := r.insns[i]
		r.observer.OnStep(StepEvent{Index: i, Opcode: insn.Opcode, StackSlots: old.StackSlots(), Iteration: r.iterations})
		if e := r.logger.Trace(); e.Enabled() {
			e.Int("index", i).Stringer("insn", insn.Instruction).Stringer("frame", old).Msg("step")
		}

		current.Init(old)
		if err := current.execute(insn, r.interp); err != nil {
			return r.fail(err, i)
		}
		sub := r.subroutines[i]
		if sub != nil {
			sub = sub.copy()
		}
		if err := r.successors(insn, current, sub); err != nil {
			return r.fail(err, i)
		}
		if err := r.exceptionEdges(i, old, sub); err != nil {
			return r.fail(err, i)
		}
	}
	return nil
}

// successors propagates the frame after insn along its normal edges.
func (r *run[V]) successors(insn Insn, after *Frame[V], sub *subroutine) error {
	i, code := insn.Index, insn.Opcode
	info := op.GetInfo(code)
	switch {
	case info.Operand == op.OperandJump:
		if code != op.Goto && code != op.Jsr {
			if err := r.edge(i, i+1, EdgeFallthrough, after, sub); err != nil {
				return err
			}
		}
		if code == op.Jsr {
			return r.edge(i, insn.Target, EdgeCall, after, newSubroutine(insn.Target, r.maxLocals, i))
		}
		return r.edge(i, insn.Target, EdgeJump, after, sub)

	case info.Kind == op.KindSwitch:
		for _, t := range insn.Successors() {
			if err := r.edge(i, t, EdgeJump, after, sub); err != nil {
				return err
			}
		}
		return nil

	case code == op.Ret:
		if sub == nil {
			return errors.NewAnalysisError(errors.E1005, "local %d holds no return address from a jsr", insn.Var)
		}
		for _, caller := range sub.callers {
			before := r.frames[caller]
			if before == nil {
				continue
			}
			r.observer.OnEdge(EdgeEvent{From: i, To: caller + 1, Kind: EdgeReturn})
			if err := r.mergeAfterRet(caller+1, before, after, r.subroutines[caller], sub.localsUsed); err != nil {
				return err
			}
		}
		return nil

	case code == op.Athrow || info.Kind == op.KindReturn:
		return nil

	default:
		if sub != nil {
			switch info.Operand {
			case op.OperandVar:
				sub.markUsed(insn.Var)
				if code.IsWide() {
					sub.markUsed(insn.Var + 1)
				}
			case op.OperandIinc:
				sub.markUsed(insn.Var)
			}
		}
		return r.edge(i, i+1, EdgeFallthrough, after, sub)
	}
}

// exceptionEdges propagates the frame before instruction i to every handler
// covering it, with the stack replaced by the thrown value.
func (r *run[V]) exceptionEdges(i int, before *Frame[V], sub *subroutine) error {
	for _, h := range r.handlers[i] {
		if !r.observer.OnExceptionEdge(ExceptionEdgeEvent{From: i, Handler: h}) {
			continue
		}
		f := before.Clone()
		f.ClearStack()
		if err := f.Push(r.interp.NewExceptionValue(h, desc.ObjectType(h.CatchType()))); err != nil {
			return err
		}
		if _, err := r.merge(h.Handler, f, sub); err != nil {
			return err
		}
	}
	return nil
}

func (r *run[V]) edge(from, to int, kind EdgeKind, f *Frame[V], sub *subroutine) error {
	r.observer.OnEdge(EdgeEvent{From: from, To: to, Kind: kind})
	_, err := r.merge(to, f, sub)
	return err
}

// merge merges f and sub into the state of instruction i and queues i if
// anything changed. The first frame to reach i is copied.
func (r *run[V]) merge(i int, f *Frame[V], sub *subroutine) (bool, error) {
	var changed bool
	if old := r.frames[i]; old == nil {
		r.frames[i] = f.Clone()
		changed = true
	} else {
		c, err := old.merge(f, r.interp)
		if err != nil {
			return false, err
		}
		changed = c
	}
	if old := r.subroutines[i]; old == nil {
		if sub != nil {
			r.subroutines[i] = sub.copy()
			changed = true
		}
	} else if sub != nil {
		changed = old.merge(sub) || changed
	}
	r.enqueue(i, changed)
	return changed, nil
}

// mergeAfterRet merges the frame after a ret into the instruction following
// a jsr. Locals the subroutine did not touch take their values from the
// frame before the jsr.
func (r *run[V]) mergeAfterRet(i int, beforeJSR, afterRet *Frame[V], subBeforeJSR *subroutine, localsUsed []bool) error {
	f := afterRet.Clone()
	f.MergeSubroutine(beforeJSR, localsUsed, r.interp)
	var changed bool
	if old := r.frames[i]; old == nil {
		r.frames[i] = f
		changed = true
	} else {
		c, err := old.merge(f, r.interp)
		if err != nil {
			return err
		}
		changed = c
	}
	if old := r.subroutines[i]; old != nil && subBeforeJSR != nil {
		changed = old.merge(subBeforeJSR) || changed
	}
	r.enqueue(i, changed)
	return nil
}

func (r *run[V]) enqueue(i int, changed bool) {
	if changed && !r.queued[i] {
		r.queued[i] = true
		r.worklist = append(r.worklist, i)
	}
}

// fail ties err to instruction i, when it is an analysis error not already
// tied to one, and to the method.
func (r *run[V]) fail(err error, i int) error {
	insn := Insn{Index: i}
	if i >= 0 {
		insn = r.insns[i]
	}
	if ae, ok := err.(*errors.AnalysisError); ok && i < 0 {
		if ae.Method == "" {
			ae.Method = r.name
		}
		return ae
	}
	return stampError(err, insn, r.name)
}
