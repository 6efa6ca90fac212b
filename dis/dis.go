// Package dis renders methods and the frames computed for them as text
// tables.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/internal/table"
	"github.com/deepnoodle-ai/stackmap/op"
)

// Instruction represents a single instruction and its operands.
type Instruction struct {
	Index      int
	Name       string
	Opcode     op.Code
	Operands   string
	Annotation string
	Constant   any
}

// Disassemble returns a parsed representation of the method's code.
func Disassemble(m *bytecode.Method) []Instruction {
	instructions := make([]Instruction, 0, m.InstructionCount())
	for i := 0; i < m.InstructionCount(); i++ {
		insn := m.InstructionAt(i)
		name := insn.Opcode.String()
		instr := Instruction{
			Index:      i,
			Name:       name,
			Opcode:     insn.Opcode,
			Annotation: handlerAnnotation(m, i),
		}
		if op.GetInfo(insn.Opcode).Operand == op.OperandConst {
			instr.Constant = insn.Const
		} else {
			instr.Operands = strings.TrimSpace(strings.TrimPrefix(insn.String(), name))
		}
		instructions = append(instructions, instr)
	}
	return instructions
}

// handlerAnnotation names the handlers whose code starts at index i.
func handlerAnnotation(m *bytecode.Method, i int) string {
	var parts []string
	for n := 0; n < m.HandlerCount(); n++ {
		h := m.HandlerAt(n)
		if h.Handler != i {
			continue
		}
		typ := h.Type
		if typ == "" {
			typ = "any"
		}
		parts = append(parts, fmt.Sprintf("catch %s [%d, %d)", typ, h.Start, h.End))
	}
	return strings.Join(parts, ", ")
}

var (
	bold    = color.New(color.Bold).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgHiCyan).SprintFunc()
	faint   = color.New(color.Faint, color.Italic).SprintFunc()
)

func formatConstant(c any) string {
	switch v := c.(type) {
	case int32, int64, float32, float64:
		return yellow(bytecode.FormatConstant(v))
	case string:
		if len(v) > 80 {
			v = v[:77] + "..."
		}
		return green(strconv.Quote(v))
	case bytecode.Handle, bytecode.ConstantDynamic:
		return magenta(bytecode.FormatConstant(v))
	default:
		return bold(bytecode.FormatConstant(v))
	}
}

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		values := []string{
			strconv.Itoa(instr.Index),
			bold(instr.Name),
			instr.Operands,
		}
		switch {
		case instr.Constant != nil:
			values = append(values, formatConstant(instr.Constant))
		case instr.Annotation != "":
			values = append(values, cyan(instr.Annotation))
		default:
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"INDEX", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// FrameInfo is the frame before one instruction, with values rendered as
// text. Locals and Stack are nil for unreachable instructions.
type FrameInfo struct {
	Index       int      `json:"index"`
	Instruction string   `json:"instruction"`
	Reachable   bool     `json:"reachable"`
	Locals      []string `json:"locals"`
	Stack       []string `json:"stack"`
}

// Frames renders every frame of an analysis result.
func Frames[V analysis.Value](result *analysis.Result[V]) []FrameInfo {
	m := result.Method()
	infos := make([]FrameInfo, result.FrameCount())
	for i := range infos {
		info := FrameInfo{
			Index:       i,
			Instruction: m.InstructionAt(i).String(),
		}
		if f := result.Frame(i); f != nil {
			info.Reachable = true
			info.Locals = render(f.Locals())
			info.Stack = render(f.StackValues())
		}
		infos[i] = info
	}
	return infos
}

func render[V analysis.Value](values []V) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// PrintFrames writes one row per instruction showing the locals and the
// operand stack before it executes. The stack is listed bottom first.
func PrintFrames(frames []FrameInfo, writer io.Writer) {
	var lines [][]string
	for _, f := range frames {
		row := []string{strconv.Itoa(f.Index), f.Instruction}
		if f.Reachable {
			row = append(row, strings.Join(f.Locals, " "), strings.Join(f.Stack, " "))
		} else {
			row = append(row, faint("unreachable"), "")
		}
		lines = append(lines, row)
	}

	table.NewTable(writer).
		WithHeader([]string{"INDEX", "INSTRUCTION", "LOCALS", "STACK"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}
