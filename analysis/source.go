package analysis

import (
	"slices"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/op"
)

// SourceValue records which instructions may have produced a value.
// Parameters, uninitialized locals and exception values have no producer.
// SourceValues are immutable.
type SourceValue struct {
	size  int
	insns []int // sorted, without duplicates
}

// NewSourceValue returns a value of the given size produced by insns.
func NewSourceValue(size int, insns ...int) SourceValue {
	s := slices.Clone(insns)
	slices.Sort(s)
	return SourceValue{size: size, insns: slices.Compact(s)}
}

// Size returns the number of slots the value occupies.
func (v SourceValue) Size() int {
	return v.size
}

// Producers returns the indexes of the producing instructions in
// increasing order.
func (v SourceValue) Producers() []int {
	return slices.Clone(v.insns)
}

// ProducedBy reports whether the instruction at index i may have produced
// the value.
func (v SourceValue) ProducedBy(i int) bool {
	_, found := slices.BinarySearch(v.insns, i)
	return found
}

// String returns the producers in braces, or "." when there are none.
func (v SourceValue) String() string {
	if len(v.insns) == 0 {
		return "."
	}
	parts := make([]string, len(v.insns))
	for i, n := range v.insns {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// SourceInterpreter tracks, for every value, the set of instructions that
// may have produced it. Instructions that only move a value (loads, stores,
// dup and swap variants) count as its producer.
type SourceInterpreter struct{}

var _ Interpreter[SourceValue] = SourceInterpreter{}

func (SourceInterpreter) NewValue(t desc.Type) SourceValue {
	if t.IsZero() {
		return SourceValue{size: 1}
	}
	return SourceValue{size: t.Size()}
}

func (SourceInterpreter) NewEmptyValue(int) SourceValue {
	return SourceValue{size: 1}
}

func (SourceInterpreter) NewExceptionValue(bytecode.ExceptionHandler, desc.Type) SourceValue {
	return SourceValue{size: 1}
}

func (SourceInterpreter) NewOperation(insn Insn) (SourceValue, error) {
	size := 1
	switch insn.Opcode {
	case op.Lconst0, op.Lconst1, op.Dconst0, op.Dconst1:
		size = 2
	case op.Ldc:
		switch c := insn.Const.(type) {
		case int64, float64:
			size = 2
		case bytecode.ConstantDynamic:
			t, err := desc.Parse(c.Desc)
			if err != nil {
				return SourceValue{}, err
			}
			size = t.Size()
		}
	case op.Getstatic:
		t, err := desc.Parse(insn.Desc)
		if err != nil {
			return SourceValue{}, err
		}
		size = t.Size()
	}
	return SourceValue{size: size, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) CopyOperation(insn Insn, v SourceValue) (SourceValue, error) {
	return SourceValue{size: v.size, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) UnaryOperation(insn Insn, _ SourceValue) (SourceValue, error) {
	size := 1
	switch insn.Opcode {
	case op.Lneg, op.Dneg, op.I2l, op.I2d, op.L2d, op.F2l, op.F2d, op.D2l:
		size = 2
	case op.Getfield:
		t, err := desc.Parse(insn.Desc)
		if err != nil {
			return SourceValue{}, err
		}
		size = t.Size()
	}
	return SourceValue{size: size, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) BinaryOperation(insn Insn, _, _ SourceValue) (SourceValue, error) {
	size := 1
	switch insn.Opcode {
	case op.Laload, op.Daload, op.Ladd, op.Dadd, op.Lsub, op.Dsub,
		op.Lmul, op.Dmul, op.Ldiv, op.Ddiv, op.Lrem, op.Drem,
		op.Lshl, op.Lshr, op.Lushr, op.Land, op.Lor, op.Lxor:
		size = 2
	}
	return SourceValue{size: size, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) TernaryOperation(insn Insn, _, _, _ SourceValue) (SourceValue, error) {
	return SourceValue{size: 1, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) NaryOperation(insn Insn, _ []SourceValue) (SourceValue, error) {
	size := 1
	if insn.Opcode != op.Multianewarray {
		ret, err := desc.ReturnType(insn.Desc)
		if err != nil {
			return SourceValue{}, err
		}
		size = ret.Size()
	}
	return SourceValue{size: size, insns: []int{insn.Index}}, nil
}

func (SourceInterpreter) ReturnOperation(Insn, SourceValue, SourceValue) error {
	return nil
}

// Merge returns the union of both producer sets with the smaller size.
func (SourceInterpreter) Merge(v1, v2 SourceValue) (SourceValue, error) {
	if v1.size == v2.size && containsAll(v1.insns, v2.insns) {
		return v1, nil
	}
	union := make([]int, 0, len(v1.insns)+len(v2.insns))
	i, j := 0, 0
	for i < len(v1.insns) || j < len(v2.insns) {
		switch {
		case j == len(v2.insns) || (i < len(v1.insns) && v1.insns[i] < v2.insns[j]):
			union = append(union, v1.insns[i])
			i++
		case i == len(v1.insns) || v2.insns[j] < v1.insns[i]:
			union = append(union, v2.insns[j])
			j++
		default:
			union = append(union, v1.insns[i])
			i++
			j++
		}
	}
	return SourceValue{size: min(v1.size, v2.size), insns: union}, nil
}

func (SourceInterpreter) Equal(v1, v2 SourceValue) bool {
	return v1.size == v2.size && slices.Equal(v1.insns, v2.insns)
}

// containsAll reports whether the sorted set a contains every element of
// the sorted set b.
func containsAll(a, b []int) bool {
	i := 0
	for _, x := range b {
		for i < len(a) && a[i] < x {
			i++
		}
		if i == len(a) || a[i] != x {
			return false
		}
	}
	return true
}
