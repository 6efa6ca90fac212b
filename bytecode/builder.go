package bytecode

import (
	"fmt"
	"math"

	"github.com/deepnoodle-ai/stackmap/op"
)

// Label marks an instruction position that jumps, switches and handlers can
// refer to before it is bound.
type Label int

// Builder assembles a Method instruction by instruction. Emit methods return
// the builder so calls can be chained; the first error is kept and reported
// by Build.
type Builder struct {
	params   MethodParams
	labels   []int
	pending  []pendingRef
	handlers []pendingHandler
	failure  error
}

type refKind int

const (
	refTarget refKind = iota
	refCase
)

// pendingRef is a jump operand still expressed as a label.
type pendingRef struct {
	insn  int
	kind  refKind
	slot  int
	label Label
}

type pendingHandler struct {
	start, end, handler Label
	typ                 string
}

// NewBuilder returns a builder for a method of the given class.
func NewBuilder(owner, name, descriptor string, access Access) *Builder {
	return &Builder{params: MethodParams{
		Owner:  owner,
		Name:   name,
		Desc:   descriptor,
		Access: access,
	}}
}

// NewLabel returns a new unbound label.
func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// Mark binds the label to the index of the next emitted instruction.
func (b *Builder) Mark(l Label) *Builder {
	if !b.validLabel(l) {
		return b
	}
	if b.labels[l] >= 0 {
		b.fail(fmt.Errorf("label %d bound twice", l))
		return b
	}
	b.labels[l] = len(b.params.Instructions)
	return b
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int {
	return len(b.params.Instructions)
}

// Emit appends a fully formed instruction and returns its index. Jump
// operands of raw instructions are instruction indexes.
func (b *Builder) Emit(insn Instruction) int {
	b.params.Instructions = append(b.params.Instructions, insn)
	return len(b.params.Instructions) - 1
}

// Op emits an instruction without operands.
func (b *Builder) Op(code op.Code) *Builder {
	b.emit(code, op.OperandNone, Instruction{})
	return b
}

// Var emits a local variable instruction (load, store or ret).
func (b *Builder) Var(code op.Code, index int) *Builder {
	b.emit(code, op.OperandVar, Instruction{Var: index})
	return b
}

// Int emits bipush, sipush or newarray.
func (b *Builder) Int(code op.Code, value int32) *Builder {
	b.emit(code, op.OperandInt, Instruction{Int: value})
	return b
}

// Iinc emits an iinc of the given local.
func (b *Builder) Iinc(index int, increment int32) *Builder {
	b.emit(op.Iinc, op.OperandIinc, Instruction{Var: index, Int: increment})
	return b
}

// Ldc emits a constant load.
func (b *Builder) Ldc(value any) *Builder {
	b.emit(op.Ldc, op.OperandConst, Instruction{Const: value})
	return b
}

// Jump emits a branch, goto or jsr to the label.
func (b *Builder) Jump(code op.Code, target Label) *Builder {
	if idx, ok := b.emit(code, op.OperandJump, Instruction{}); ok {
		b.ref(idx, refTarget, 0, target)
	}
	return b
}

// TableSwitch emits a tableswitch over [min, min+len(cases)). At least one
// case is required and the range must fit in an int32.
func (b *Builder) TableSwitch(min int32, dflt Label, cases ...Label) *Builder {
	if len(cases) == 0 {
		b.fail(fmt.Errorf("tableswitch: no case labels"))
		return b
	}
	if high := int64(min) + int64(len(cases)) - 1; high > math.MaxInt32 {
		b.fail(fmt.Errorf("tableswitch: range %d..%d overflows int32", min, high))
		return b
	}
	insn := Instruction{
		Min:     min,
		Max:     min + int32(len(cases)) - 1,
		Targets: make([]int, len(cases)),
	}
	if idx, ok := b.emit(op.Tableswitch, op.OperandTableSwitch, insn); ok {
		b.ref(idx, refTarget, 0, dflt)
		for i, l := range cases {
			b.ref(idx, refCase, i, l)
		}
	}
	return b
}

// LookupSwitch emits a lookupswitch; keys and cases pair up by position.
func (b *Builder) LookupSwitch(dflt Label, keys []int32, cases []Label) *Builder {
	if len(keys) != len(cases) {
		b.fail(fmt.Errorf("lookupswitch: %d keys but %d targets", len(keys), len(cases)))
		return b
	}
	insn := Instruction{
		Keys:    append([]int32(nil), keys...),
		Targets: make([]int, len(cases)),
	}
	if idx, ok := b.emit(op.Lookupswitch, op.OperandLookupSwitch, insn); ok {
		b.ref(idx, refTarget, 0, dflt)
		for i, l := range cases {
			b.ref(idx, refCase, i, l)
		}
	}
	return b
}

// Field emits a field access.
func (b *Builder) Field(code op.Code, owner, name, descriptor string) *Builder {
	b.emit(code, op.OperandField, Instruction{Owner: owner, Name: name, Desc: descriptor})
	return b
}

// Invoke emits a method invocation.
func (b *Builder) Invoke(code op.Code, owner, name, descriptor string, itf bool) *Builder {
	b.emit(code, op.OperandMethod, Instruction{
		Owner:     owner,
		Name:      name,
		Desc:      descriptor,
		Interface: itf || code == op.Invokeinterface,
	})
	return b
}

// InvokeDynamic emits an invokedynamic call site.
func (b *Builder) InvokeDynamic(name, descriptor string, bootstrap Handle) *Builder {
	b.emit(op.Invokedynamic, op.OperandInvokeDynamic, Instruction{
		Name:      name,
		Desc:      descriptor,
		Bootstrap: bootstrap,
	})
	return b
}

// Type emits new, anewarray, checkcast or instanceof.
func (b *Builder) Type(code op.Code, internalName string) *Builder {
	b.emit(code, op.OperandType, Instruction{Desc: internalName})
	return b
}

// MultiANewArray emits a multianewarray of the given array descriptor.
func (b *Builder) MultiANewArray(descriptor string, dims int32) *Builder {
	b.emit(op.Multianewarray, op.OperandMultiANewArray, Instruction{Desc: descriptor, Int: dims})
	return b
}

// Handler adds an exception handler guarding [start, end) that transfers to
// handler. An empty type catches everything.
func (b *Builder) Handler(start, end, handler Label, typ string) *Builder {
	if !b.validLabel(start) || !b.validLabel(end) || !b.validLabel(handler) {
		return b
	}
	b.handlers = append(b.handlers, pendingHandler{start, end, handler, typ})
	return b
}

// MaxStack sets the declared maximum stack size.
func (b *Builder) MaxStack(n int) *Builder {
	b.params.MaxStack = n
	return b
}

// MaxLocals sets the declared number of locals.
func (b *Builder) MaxLocals(n int) *Builder {
	b.params.MaxLocals = n
	return b
}

// Build resolves labels and returns the method.
func (b *Builder) Build() (*Method, error) {
	if b.failure != nil {
		return nil, b.failure
	}
	params := b.params
	params.Instructions = copyInstructions(b.params.Instructions)
	for _, r := range b.pending {
		pos, err := b.resolve(r.label)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", r.insn, err)
		}
		insn := &params.Instructions[r.insn]
		if r.kind == refTarget {
			insn.Target = pos
		} else {
			insn.Targets[r.slot] = pos
		}
	}
	params.Handlers = make([]ExceptionHandler, 0, len(b.handlers))
	for i, h := range b.handlers {
		var bounds [3]int
		for n, l := range []Label{h.start, h.end, h.handler} {
			pos, err := b.resolve(l)
			if err != nil {
				return nil, fmt.Errorf("handler %d: %w", i, err)
			}
			bounds[n] = pos
		}
		params.Handlers = append(params.Handlers, ExceptionHandler{
			Start:   bounds[0],
			End:     bounds[1],
			Handler: bounds[2],
			Type:    h.typ,
		})
	}
	return NewMethod(params), nil
}

func (b *Builder) emit(code op.Code, want op.Operand, insn Instruction) (int, bool) {
	info := op.GetInfo(code)
	if info.Kind == op.KindInvalid {
		b.fail(fmt.Errorf("instruction %d: invalid opcode %d", len(b.params.Instructions), code))
		return 0, false
	}
	if info.Operand != want {
		b.fail(fmt.Errorf("instruction %d: %s does not take this operand form", len(b.params.Instructions), code))
		return 0, false
	}
	insn.Opcode = code
	return b.Emit(insn), true
}

func (b *Builder) ref(insn int, kind refKind, slot int, l Label) {
	if b.validLabel(l) {
		b.pending = append(b.pending, pendingRef{insn: insn, kind: kind, slot: slot, label: l})
	}
}

func (b *Builder) resolve(l Label) (int, error) {
	pos := b.labels[l]
	if pos < 0 {
		return 0, fmt.Errorf("label %d is not bound", l)
	}
	return pos, nil
}

func (b *Builder) validLabel(l Label) bool {
	if l < 0 || int(l) >= len(b.labels) {
		b.fail(fmt.Errorf("unknown label %d", l))
		return false
	}
	return true
}

func (b *Builder) fail(err error) {
	if b.failure == nil {
		b.failure = err
	}
}
