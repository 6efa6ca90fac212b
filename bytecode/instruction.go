package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/op"
)

// Instruction is one instruction of a method body. Only the operand fields
// named by the opcode's op.Operand are meaningful; the rest are zero.
//
//	OperandVar            Var
//	OperandInt            Int (bipush, sipush, newarray element type)
//	OperandIinc           Var, Int (increment)
//	OperandConst          Const
//	OperandJump           Target
//	OperandTableSwitch    Min, Max, Target (default), Targets
//	OperandLookupSwitch   Keys, Target (default), Targets
//	OperandField          Owner, Name, Desc
//	OperandMethod         Owner, Name, Desc, Interface
//	OperandInvokeDynamic  Name, Desc, Bootstrap
//	OperandType           Desc (internal name of the class or array type)
//	OperandMultiANewArray Desc (array descriptor), Int (dimensions)
//
// Ldc constants are one of int32, float32, int64, float64, string,
// desc.Type (a class or a method type), Handle or ConstantDynamic.
type Instruction struct {
	Opcode    op.Code
	Var       int
	Int       int32
	Const     any
	Target    int
	Targets   []int
	Min       int32
	Max       int32
	Keys      []int32
	Owner     string
	Name      string
	Desc      string
	Interface bool
	Bootstrap Handle
}

// Handle is a method handle constant.
type Handle struct {
	Tag       int
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

func (h Handle) String() string {
	return fmt.Sprintf("%s.%s%s (%d)", h.Owner, h.Name, h.Desc, h.Tag)
}

// ConstantDynamic is a dynamically computed constant.
type ConstantDynamic struct {
	Name      string
	Desc      string
	Bootstrap Handle
}

func (c ConstantDynamic) String() string {
	return fmt.Sprintf("%s:%s %s", c.Name, c.Desc, c.Bootstrap)
}

// Successors returns the explicit jump targets of the instruction, default
// target first for switches. Fall-through is not included.
func (i Instruction) Successors() []int {
	switch op.GetInfo(i.Opcode).Operand {
	case op.OperandJump:
		return []int{i.Target}
	case op.OperandTableSwitch, op.OperandLookupSwitch:
		targets := make([]int, 0, len(i.Targets)+1)
		targets = append(targets, i.Target)
		return append(targets, i.Targets...)
	}
	return nil
}

// IsJump reports whether the instruction transfers control to an explicit
// target (branches, goto, jsr and switches).
func (i Instruction) IsJump() bool {
	switch op.GetInfo(i.Opcode).Operand {
	case op.OperandJump, op.OperandTableSwitch, op.OperandLookupSwitch:
		return true
	}
	return false
}

func (i Instruction) String() string {
	info := op.GetInfo(i.Opcode)
	var sb strings.Builder
	sb.WriteString(i.Opcode.String())
	switch info.Operand {
	case op.OperandVar:
		fmt.Fprintf(&sb, " %d", i.Var)
	case op.OperandInt:
		fmt.Fprintf(&sb, " %d", i.Int)
	case op.OperandIinc:
		fmt.Fprintf(&sb, " %d %d", i.Var, i.Int)
	case op.OperandConst:
		sb.WriteByte(' ')
		sb.WriteString(FormatConstant(i.Const))
	case op.OperandJump:
		fmt.Fprintf(&sb, " %d", i.Target)
	case op.OperandTableSwitch:
		fmt.Fprintf(&sb, " %d..%d %s default %d", i.Min, i.Max, formatInts(i.Targets), i.Target)
	case op.OperandLookupSwitch:
		pairs := make([]string, len(i.Keys))
		for n, k := range i.Keys {
			t := -1
			if n < len(i.Targets) {
				t = i.Targets[n]
			}
			pairs[n] = fmt.Sprintf("%d:%d", k, t)
		}
		fmt.Fprintf(&sb, " [%s] default %d", strings.Join(pairs, " "), i.Target)
	case op.OperandField, op.OperandMethod:
		fmt.Fprintf(&sb, " %s.%s %s", i.Owner, i.Name, i.Desc)
		if i.Interface && i.Opcode != op.Invokeinterface {
			sb.WriteString(" itf")
		}
	case op.OperandInvokeDynamic:
		fmt.Fprintf(&sb, " %s %s", i.Name, i.Desc)
	case op.OperandType:
		fmt.Fprintf(&sb, " %s", i.Desc)
	case op.OperandMultiANewArray:
		fmt.Fprintf(&sb, " %s %d", i.Desc, i.Int)
	}
	return sb.String()
}

// FormatConstant renders an ldc constant the way listings show it.
func FormatConstant(c any) string {
	switch v := c.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32) + "F"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64) + "D"
	case desc.Type:
		return v.Descriptor()
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
