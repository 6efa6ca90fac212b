package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Structural errors (malformed control flow)
//   - E2xxx: Stack discipline errors
//   - E3xxx: Internal consistency errors
//   - E4xxx: Assembly errors
type ErrorCode string

const (
	// Structural errors (E1xxx)
	E1001 ErrorCode = "E1001" // Jump target out of range
	E1002 ErrorCode = "E1002" // Invalid exception handler range
	E1003 ErrorCode = "E1003" // Execution can fall off end of code
	E1004 ErrorCode = "E1004" // Illegal opcode
	E1005 ErrorCode = "E1005" // RET outside of a subroutine
	E1006 ErrorCode = "E1006" // Malformed method descriptor

	// Stack discipline errors (E2xxx)
	E2001 ErrorCode = "E2001" // Stack underflow
	E2002 ErrorCode = "E2002" // Stack overflow
	E2003 ErrorCode = "E2003" // Local variable index out of range
	E2004 ErrorCode = "E2004" // Illegal use of a category-2 value
	E2005 ErrorCode = "E2005" // Incompatible stack heights
	E2006 ErrorCode = "E2006" // Incompatible stack value sizes
	E2007 ErrorCode = "E2007" // Return type mismatch

	// Consistency errors (E3xxx)
	E3001 ErrorCode = "E3001" // Merge changed value size

	// Assembly errors (E4xxx)
	E4001 ErrorCode = "E4001" // Unknown mnemonic
	E4002 ErrorCode = "E4002" // Invalid operand
	E4003 ErrorCode = "E4003" // Undefined or duplicate label
	E4004 ErrorCode = "E4004" // Invalid class document
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "jump target out of range",
	E1002: "invalid exception handler range",
	E1003: "execution can fall off the end of the code",
	E1004: "illegal opcode",
	E1005: "ret instruction outside of a subroutine",
	E1006: "malformed method descriptor",

	E2001: "stack underflow",
	E2002: "stack overflow",
	E2003: "local variable index out of range",
	E2004: "illegal use of a category-2 value",
	E2005: "incompatible stack heights",
	E2006: "incompatible stack value sizes",
	E2007: "return type mismatch",

	E3001: "merge changed value size",

	E4001: "unknown mnemonic",
	E4002: "invalid operand",
	E4003: "undefined or duplicate label",
	E4004: "invalid class document",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "structural"
	case '2':
		return "stack"
	case '3':
		return "consistency"
	case '4':
		return "assembly"
	default:
		return "unknown"
	}
}
