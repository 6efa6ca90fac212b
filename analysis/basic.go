package analysis

import (
	"fmt"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/op"
)

// BasicValue is a basic verification type. The zero value is BasicInvalid
// and stands for "no value", as produced by instructions with no result.
type BasicValue uint8

const (
	BasicInvalid BasicValue = iota
	Uninitialized
	Int
	Float
	Long
	Double
	Reference
	ReturnAddress
)

// Size returns 2 for Long and Double and 1 otherwise.
func (v BasicValue) Size() int {
	if v == Long || v == Double {
		return 2
	}
	return 1
}

// IsReference reports whether v is a reference.
func (v BasicValue) IsReference() bool {
	return v == Reference
}

func (v BasicValue) String() string {
	switch v {
	case Uninitialized:
		return "."
	case Int:
		return "I"
	case Float:
		return "F"
	case Long:
		return "J"
	case Double:
		return "D"
	case Reference:
		return "R"
	case ReturnAddress:
		return "A"
	default:
		return "?"
	}
}

// BasicInterpreter interprets instructions over BasicValue. Values of
// different types merge to Uninitialized. It performs no verification: an
// iadd of two references yields Int.
type BasicInterpreter struct{}

var _ Interpreter[BasicValue] = BasicInterpreter{}

func (BasicInterpreter) NewValue(t desc.Type) BasicValue {
	if t.IsZero() {
		return Uninitialized
	}
	switch t.Sort() {
	case desc.Void:
		return BasicInvalid
	case desc.Boolean, desc.Char, desc.Byte, desc.Short, desc.Int:
		return Int
	case desc.Float:
		return Float
	case desc.Long:
		return Long
	case desc.Double:
		return Double
	case desc.Array, desc.Object:
		return Reference
	default:
		return Uninitialized
	}
}

func (BasicInterpreter) NewEmptyValue(int) BasicValue {
	return Uninitialized
}

func (BasicInterpreter) NewExceptionValue(bytecode.ExceptionHandler, desc.Type) BasicValue {
	return Reference
}

func (b BasicInterpreter) NewOperation(insn Insn) (BasicValue, error) {
	switch insn.Opcode {
	case op.AconstNull, op.New:
		return Reference, nil
	case op.IconstM1, op.Iconst0, op.Iconst1, op.Iconst2, op.Iconst3,
		op.Iconst4, op.Iconst5, op.Bipush, op.Sipush:
		return Int, nil
	case op.Lconst0, op.Lconst1:
		return Long, nil
	case op.Fconst0, op.Fconst1, op.Fconst2:
		return Float, nil
	case op.Dconst0, op.Dconst1:
		return Double, nil
	case op.Ldc:
		return b.constant(insn.Const)
	case op.Jsr:
		return ReturnAddress, nil
	case op.Getstatic:
		return b.fieldValue(insn.Desc)
	}
	return BasicInvalid, unexpected(insn)
}

func (b BasicInterpreter) constant(c any) (BasicValue, error) {
	switch c := c.(type) {
	case int32:
		return Int, nil
	case float32:
		return Float, nil
	case int64:
		return Long, nil
	case float64:
		return Double, nil
	case string, bytecode.Handle:
		return Reference, nil
	case desc.Type:
		if c.Sort() == desc.Method || c.IsReference() {
			return Reference, nil
		}
	case bytecode.ConstantDynamic:
		return b.fieldValue(c.Desc)
	}
	return BasicInvalid, fmt.Errorf("illegal ldc value %v", c)
}

func (b BasicInterpreter) fieldValue(descriptor string) (BasicValue, error) {
	t, err := desc.Parse(descriptor)
	if err != nil {
		return BasicInvalid, err
	}
	return b.NewValue(t), nil
}

func (BasicInterpreter) CopyOperation(_ Insn, v BasicValue) (BasicValue, error) {
	return v, nil
}

func (b BasicInterpreter) UnaryOperation(insn Insn, _ BasicValue) (BasicValue, error) {
	switch insn.Opcode {
	case op.Ineg, op.Iinc, op.L2i, op.F2i, op.D2i, op.I2b, op.I2c, op.I2s,
		op.Arraylength, op.Instanceof:
		return Int, nil
	case op.Fneg, op.I2f, op.L2f, op.D2f:
		return Float, nil
	case op.Lneg, op.I2l, op.F2l, op.D2l:
		return Long, nil
	case op.Dneg, op.I2d, op.L2d, op.F2d:
		return Double, nil
	case op.Ifeq, op.Ifne, op.Iflt, op.Ifge, op.Ifgt, op.Ifle,
		op.Tableswitch, op.Lookupswitch,
		op.Ireturn, op.Lreturn, op.Freturn, op.Dreturn, op.Areturn,
		op.Putstatic, op.Athrow, op.Monitorenter, op.Monitorexit,
		op.Ifnull, op.Ifnonnull:
		return BasicInvalid, nil
	case op.Getfield:
		return b.fieldValue(insn.Desc)
	case op.Newarray:
		if insn.Int < op.TBoolean || insn.Int > op.TLong {
			return BasicInvalid, fmt.Errorf("invalid array type %d", insn.Int)
		}
		return Reference, nil
	case op.Anewarray, op.Checkcast:
		return Reference, nil
	}
	return BasicInvalid, unexpected(insn)
}

func (BasicInterpreter) BinaryOperation(insn Insn, _, _ BasicValue) (BasicValue, error) {
	switch insn.Opcode {
	case op.Iaload, op.Baload, op.Caload, op.Saload,
		op.Iadd, op.Isub, op.Imul, op.Idiv, op.Irem,
		op.Ishl, op.Ishr, op.Iushr, op.Iand, op.Ior, op.Ixor,
		op.Lcmp, op.Fcmpl, op.Fcmpg, op.Dcmpl, op.Dcmpg:
		return Int, nil
	case op.Faload, op.Fadd, op.Fsub, op.Fmul, op.Fdiv, op.Frem:
		return Float, nil
	case op.Laload, op.Ladd, op.Lsub, op.Lmul, op.Ldiv, op.Lrem,
		op.Lshl, op.Lshr, op.Lushr, op.Land, op.Lor, op.Lxor:
		return Long, nil
	case op.Daload, op.Dadd, op.Dsub, op.Dmul, op.Ddiv, op.Drem:
		return Double, nil
	case op.Aaload:
		return Reference, nil
	case op.IfIcmpeq, op.IfIcmpne, op.IfIcmplt, op.IfIcmpge, op.IfIcmpgt,
		op.IfIcmple, op.IfAcmpeq, op.IfAcmpne, op.Putfield:
		return BasicInvalid, nil
	}
	return BasicInvalid, unexpected(insn)
}

func (BasicInterpreter) TernaryOperation(Insn, BasicValue, BasicValue, BasicValue) (BasicValue, error) {
	return BasicInvalid, nil
}

func (b BasicInterpreter) NaryOperation(insn Insn, _ []BasicValue) (BasicValue, error) {
	if insn.Opcode == op.Multianewarray {
		return Reference, nil
	}
	ret, err := desc.ReturnType(insn.Desc)
	if err != nil {
		return BasicInvalid, err
	}
	return b.NewValue(ret), nil
}

func (BasicInterpreter) ReturnOperation(Insn, BasicValue, BasicValue) error {
	return nil
}

func (BasicInterpreter) Merge(v1, v2 BasicValue) (BasicValue, error) {
	if v1 != v2 {
		return Uninitialized, nil
	}
	return v1, nil
}

func (BasicInterpreter) Equal(v1, v2 BasicValue) bool {
	return v1 == v2
}

func unexpected(insn Insn) error {
	return fmt.Errorf("unexpected instruction %s at %d", insn.Opcode, insn.Index)
}
