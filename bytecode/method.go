package bytecode

import (
	"fmt"
	"strings"
)

// Access holds the access flags of a method.
type Access uint16

const (
	AccPublic       Access = 0x0001
	AccPrivate      Access = 0x0002
	AccProtected    Access = 0x0004
	AccStatic       Access = 0x0008
	AccFinal        Access = 0x0010
	AccSynchronized Access = 0x0020
	AccBridge       Access = 0x0040
	AccVarargs      Access = 0x0080
	AccNative       Access = 0x0100
	AccAbstract     Access = 0x0400
	AccStrict       Access = 0x0800
	AccSynthetic    Access = 0x1000
)

var accessNames = []struct {
	flag Access
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strict"},
	{AccSynthetic, "synthetic"},
}

// Has reports whether all bits of f are set.
func (a Access) Has(f Access) bool {
	return a&f == f
}

func (a Access) String() string {
	var names []string
	for _, n := range accessNames {
		if a.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, " ")
}

// ParseAccess parses a space separated list of access flag names.
func ParseAccess(s string) (Access, error) {
	var a Access
	for _, word := range strings.Fields(s) {
		found := false
		for _, n := range accessNames {
			if n.name == word {
				a |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown access flag %q", word)
		}
	}
	return a, nil
}

// Method represents one method body and its shape.
// It is immutable after creation and safe for concurrent use.
type Method struct {
	owner        string
	name         string
	desc         string
	access       Access
	maxStack     int
	maxLocals    int
	instructions []Instruction
	handlers     []ExceptionHandler
}

// MethodParams contains parameters for creating a new Method.
type MethodParams struct {
	Owner        string // internal name of the declaring class
	Name         string
	Desc         string // method descriptor
	Access       Access
	MaxStack     int
	MaxLocals    int
	Instructions []Instruction
	Handlers     []ExceptionHandler
}

// NewMethod creates a new immutable Method from the given parameters.
// Input slices are copied to ensure immutability.
func NewMethod(params MethodParams) *Method {
	return &Method{
		owner:        params.Owner,
		name:         params.Name,
		desc:         params.Desc,
		access:       params.Access,
		maxStack:     params.MaxStack,
		maxLocals:    params.MaxLocals,
		instructions: copyInstructions(params.Instructions),
		handlers:     copyHandlers(params.Handlers),
	}
}

// Params returns a copy of the parameters the method was created from.
func (m *Method) Params() MethodParams {
	return MethodParams{
		Owner:        m.owner,
		Name:         m.name,
		Desc:         m.desc,
		Access:       m.access,
		MaxStack:     m.maxStack,
		MaxLocals:    m.maxLocals,
		Instructions: copyInstructions(m.instructions),
		Handlers:     copyHandlers(m.handlers),
	}
}

// Owner returns the internal name of the declaring class.
func (m *Method) Owner() string {
	return m.owner
}

// Name returns the method name.
func (m *Method) Name() string {
	return m.name
}

// Desc returns the method descriptor.
func (m *Method) Desc() string {
	return m.desc
}

// Access returns the access flags.
func (m *Method) Access() Access {
	return m.access
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.access.Has(AccStatic)
}

// HasCode reports whether the method carries a body. Abstract and native
// methods do not.
func (m *Method) HasCode() bool {
	return m.access&(AccAbstract|AccNative) == 0
}

// MaxStack returns the declared maximum operand stack size, in slots.
func (m *Method) MaxStack() int {
	return m.maxStack
}

// MaxLocals returns the declared number of local variable slots.
func (m *Method) MaxLocals() int {
	return m.maxLocals
}

// InstructionCount returns the number of instructions.
func (m *Method) InstructionCount() int {
	return len(m.instructions)
}

// InstructionAt returns the instruction at the given index.
func (m *Method) InstructionAt(index int) Instruction {
	return m.instructions[index]
}

// HandlerCount returns the number of exception handlers.
func (m *Method) HandlerCount() int {
	return len(m.handlers)
}

// HandlerAt returns the exception handler at the given index.
func (m *Method) HandlerAt(index int) ExceptionHandler {
	return m.handlers[index]
}

// String returns owner.name followed by the descriptor.
func (m *Method) String() string {
	if m.owner == "" {
		return m.name + m.desc
	}
	return m.owner + "." + m.name + m.desc
}
