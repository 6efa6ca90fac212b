// Package desc parses JVM field and method type descriptors.
package desc

import (
	"fmt"
	"strings"
)

// Sort is the category of a Type.
type Sort uint8

const (
	Void Sort = iota
	Boolean
	Char
	Byte
	Short
	Int
	Float
	Long
	Double
	Array
	Object
	Method
)

var sortNames = [...]string{
	Void:    "void",
	Boolean: "boolean",
	Char:    "char",
	Byte:    "byte",
	Short:   "short",
	Int:     "int",
	Float:   "float",
	Long:    "long",
	Double:  "double",
	Array:   "array",
	Object:  "object",
	Method:  "method",
}

func (s Sort) String() string {
	if int(s) < len(sortNames) {
		return sortNames[s]
	}
	return "unknown"
}

// Type is a parsed descriptor. The zero Type is not a valid type; use
// IsZero to detect it.
type Type struct {
	sort       Sort
	descriptor string
}

var (
	VoidType    = Type{Void, "V"}
	BooleanType = Type{Boolean, "Z"}
	CharType    = Type{Char, "C"}
	ByteType    = Type{Byte, "B"}
	ShortType   = Type{Short, "S"}
	IntType     = Type{Int, "I"}
	FloatType   = Type{Float, "F"}
	LongType    = Type{Long, "J"}
	DoubleType  = Type{Double, "D"}
)

// Well-known reference types.
var (
	ObjectClass    = ObjectType("java/lang/Object")
	StringClass    = ObjectType("java/lang/String")
	ClassClass     = ObjectType("java/lang/Class")
	ThrowableClass = ObjectType("java/lang/Throwable")
	MethodTypeRef  = ObjectType("java/lang/invoke/MethodType")
	MethodHandle   = ObjectType("java/lang/invoke/MethodHandle")
)

// ObjectType returns the type of a class given its internal name
// (java/lang/String). Internal names of array classes are descriptors and
// yield an array type.
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{Array, internalName}
	}
	return Type{Object, "L" + internalName + ";"}
}

// MustParse is like Parse but panics on malformed input. It is intended for
// descriptors that are constants in the caller.
func MustParse(descriptor string) Type {
	t, err := Parse(descriptor)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses a field or method descriptor.
func Parse(descriptor string) (Type, error) {
	if descriptor == "" {
		return Type{}, fmt.Errorf("empty descriptor")
	}
	if descriptor[0] == '(' {
		if _, _, err := splitMethod(descriptor); err != nil {
			return Type{}, err
		}
		return Type{Method, descriptor}, nil
	}
	t, n, err := parseField(descriptor, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(descriptor) {
		return Type{}, fmt.Errorf("invalid descriptor %q: trailing characters", descriptor)
	}
	return t, nil
}

// parseField parses one field type starting at offset and returns it with
// the offset just past it.
func parseField(s string, offset int) (Type, int, error) {
	if offset >= len(s) {
		return Type{}, offset, fmt.Errorf("invalid descriptor %q: unexpected end", s)
	}
	switch s[offset] {
	case 'V':
		return VoidType, offset + 1, nil
	case 'Z':
		return BooleanType, offset + 1, nil
	case 'C':
		return CharType, offset + 1, nil
	case 'B':
		return ByteType, offset + 1, nil
	case 'S':
		return ShortType, offset + 1, nil
	case 'I':
		return IntType, offset + 1, nil
	case 'F':
		return FloatType, offset + 1, nil
	case 'J':
		return LongType, offset + 1, nil
	case 'D':
		return DoubleType, offset + 1, nil
	case 'L':
		end := strings.IndexByte(s[offset:], ';')
		if end <= 1 {
			return Type{}, offset, fmt.Errorf("invalid descriptor %q: unterminated class name", s)
		}
		end += offset + 1
		return Type{Object, s[offset:end]}, end, nil
	case '[':
		dims := offset
		for dims < len(s) && s[dims] == '[' {
			dims++
		}
		elem, end, err := parseField(s, dims)
		if err != nil {
			return Type{}, offset, err
		}
		if elem.sort == Void {
			return Type{}, offset, fmt.Errorf("invalid descriptor %q: array of void", s)
		}
		return Type{Array, s[offset:end]}, end, nil
	default:
		return Type{}, offset, fmt.Errorf("invalid descriptor %q: unexpected %q at %d", s, s[offset], offset)
	}
}

func splitMethod(s string) ([]Type, Type, error) {
	if len(s) == 0 || s[0] != '(' {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q", s)
	}
	var args []Type
	i := 1
	for i < len(s) && s[i] != ')' {
		t, next, err := parseField(s, i)
		if err != nil {
			return nil, Type{}, err
		}
		if t.sort == Void {
			return nil, Type{}, fmt.Errorf("invalid method descriptor %q: void argument", s)
		}
		args = append(args, t)
		i = next
	}
	if i >= len(s) {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q: missing ')'", s)
	}
	ret, end, err := parseField(s, i+1)
	if err != nil {
		return nil, Type{}, err
	}
	if end != len(s) {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q: trailing characters", s)
	}
	return args, ret, nil
}

// ArgumentTypes returns the argument types of a method descriptor.
func ArgumentTypes(methodDescriptor string) ([]Type, error) {
	args, _, err := splitMethod(methodDescriptor)
	return args, err
}

// ReturnType returns the return type of a method descriptor.
func ReturnType(methodDescriptor string) (Type, error) {
	_, ret, err := splitMethod(methodDescriptor)
	return ret, err
}

// ArgumentsSize returns the number of local slots taken by the arguments of
// a method descriptor, not counting an implicit receiver.
func ArgumentsSize(methodDescriptor string) (int, error) {
	args, _, err := splitMethod(methodDescriptor)
	if err != nil {
		return 0, err
	}
	size := 0
	for _, a := range args {
		size += a.Size()
	}
	return size, nil
}

// Sort returns the category of the type.
func (t Type) Sort() Sort { return t.sort }

// Descriptor returns the descriptor string of the type.
func (t Type) Descriptor() string { return t.descriptor }

// IsZero reports whether t is the zero Type.
func (t Type) IsZero() bool { return t.descriptor == "" }

// IsReference reports whether values of the type are references.
func (t Type) IsReference() bool { return t.sort == Array || t.sort == Object }

// Size returns the number of slots a value of this type occupies: 0 for
// void, 2 for long and double, 1 otherwise.
func (t Type) Size() int {
	switch t.sort {
	case Void:
		return 0
	case Long, Double:
		return 2
	default:
		return 1
	}
}

// InternalName returns the internal name of an object or array type, as used
// by class references in instructions.
func (t Type) InternalName() string {
	switch t.sort {
	case Object:
		return t.descriptor[1 : len(t.descriptor)-1]
	case Array:
		return t.descriptor
	default:
		return ""
	}
}

// Dimensions returns the number of array dimensions of an array type.
func (t Type) Dimensions() int {
	n := 0
	for n < len(t.descriptor) && t.descriptor[n] == '[' {
		n++
	}
	if t.sort != Array {
		return 0
	}
	return n
}

// ElementType returns the innermost element type of an array type.
func (t Type) ElementType() Type {
	if t.sort != Array {
		return Type{}
	}
	elem, _, err := parseField(t.descriptor, t.Dimensions())
	if err != nil {
		return Type{}
	}
	return elem
}

// ArrayOf returns the one-dimension array type whose elements are t.
func ArrayOf(t Type) Type {
	return Type{Array, "[" + t.descriptor}
}

func (t Type) String() string {
	return t.descriptor
}
