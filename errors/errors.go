// Package errors defines the error types reported by analysis and assembly.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// SourceLocation represents a position in an assembly listing.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // The line of source text
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// FatalError is an interface for errors that may or may not be fatal.
type FatalError interface {
	Error() string
	IsFatal() bool
}

// FormattableError is an interface for errors that can be formatted with
// the Formatter.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// Kind classifies an AnalysisError.
type Kind int

const (
	KindStructural Kind = iota + 1
	KindStack
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindStack:
		return "stack"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// AnalysisError reports a method body the analyzer rejected. Index is the
// offending instruction, or -1 when the failure is not tied to one.
type AnalysisError struct {
	Code    ErrorCode
	Index   int
	Insn    string // rendered instruction at Index, if known
	Method  string // owner.name+descriptor, if known
	Message string
	Err     error
}

// NewAnalysisError creates an error that is not yet tied to an instruction.
func NewAnalysisError(code ErrorCode, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Index:   -1,
		Message: fmt.Sprintf(format, args...),
	}
}

// AnalysisErrorAt creates an error for the instruction at index.
func AnalysisErrorAt(code ErrorCode, index int, format string, args ...any) *AnalysisError {
	e := NewAnalysisError(code, format, args...)
	e.Index = index
	return e
}

func (e *AnalysisError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.Description())
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at instruction %d", e.Index)
		if e.Insn != "" {
			fmt.Fprintf(&b, " (%s)", e.Insn)
		}
	}
	if e.Method != "" {
		fmt.Fprintf(&b, " in %s", e.Method)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsFatal always reports true: a rejected method is never retried.
func (e *AnalysisError) IsFatal() bool {
	return true
}

// Kind returns the class of failure derived from the code.
func (e *AnalysisError) Kind() Kind {
	switch e.Code.Category() {
	case "structural":
		return KindStructural
	case "stack":
		return KindStack
	case "consistency":
		return KindConsistency
	default:
		return 0
	}
}

// ToFormatted converts to the FormattedError type for display.
func (e *AnalysisError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:    e.Code,
		Kind:    e.Kind().String() + " error",
		Message: e.Code.Description(),
		Note:    e.Message,
	}
	if e.Method != "" {
		fe.Location = e.Method
	}
	if e.Index >= 0 {
		if fe.Location != "" {
			fe.Location += " "
		}
		fe.Location += fmt.Sprintf("@%d", e.Index)
		fe.Line = e.Index
		fe.SourceLine = e.Insn
	}
	if e.Err != nil {
		if fe.Note != "" {
			fe.Note += ": "
		}
		fe.Note += e.Err.Error()
	}
	return fe
}

// AsAnalysisError returns the first AnalysisError in err's chain.
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// AssemblyError reports a malformed assembly listing or class document.
type AssemblyError struct {
	Code        ErrorCode
	Message     string
	Location    SourceLocation
	Suggestions []Suggestion
}

// AssemblyErrorf creates an assembly error at the given location.
func AssemblyErrorf(code ErrorCode, loc SourceLocation, format string, args ...any) *AssemblyError {
	return &AssemblyError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

func (e *AssemblyError) Error() string {
	var b strings.Builder
	b.WriteString("assembly error: ")
	b.WriteString(e.Message)
	if !e.Location.IsZero() {
		b.WriteString(" (")
		b.WriteString(e.Location.String())
		b.WriteString(")")
	}
	if hint := FormatSuggestions(e.Suggestions); hint != "" {
		b.WriteString(": ")
		b.WriteString(hint)
	}
	return b.String()
}

func (e *AssemblyError) IsFatal() bool {
	return true
}

// ToFormatted converts to the FormattedError type for display.
func (e *AssemblyError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:       e.Code,
		Kind:       "assembly error",
		Message:    e.Message,
		SourceLine: e.Location.Source,
		Line:       e.Location.Line,
		Column:     e.Location.Column,
		Hint:       FormatSuggestions(e.Suggestions),
	}
	if !e.Location.IsZero() {
		fe.Location = e.Location.String()
	}
	return fe
}
