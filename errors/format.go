package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter formats errors with colors and consistent styling.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

// Colors used for error formatting
var (
	colorError     = color.New(color.FgRed)
	colorErrorBold = color.New(color.FgHiRed, color.Bold)
	colorCode      = color.New(color.FgHiBlack)
	colorLocation  = color.New(color.FgCyan)
	colorPipe      = color.New(color.FgHiBlack)
	colorSource    = color.New(color.FgWhite)
	colorCaret     = color.New(color.FgHiRed)
	colorHint      = color.New(color.FgHiYellow)
	colorNote      = color.New(color.FgHiBlue)
)

// FormattedError represents an error ready for display.
type FormattedError struct {
	Code       ErrorCode
	Kind       string // "error", "stack error", "assembly error", etc.
	Message    string
	Location   string // rendered position: file:line:col or method@index
	Line       int    // source line or instruction index shown in the gutter
	Column     int    // 1-based caret column, 0 for none
	SourceLine string
	Hint       string
	Note       string
}

// Format formats the error as a string.
func (f *Formatter) Format(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix formats the error with an optional prefix like "[1/5]"
// shown when the error has no code.
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder
	width := len(fmt.Sprintf("%d", err.Line))
	if width < 2 {
		width = 2
	}
	pad := strings.Repeat(" ", width)

	// error[E2001]: message
	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(colorErrorBold, label))
	if err.Code != "" {
		b.WriteString(f.paint(colorCode, "["+string(err.Code)+"]"))
	} else if prefix != "" {
		b.WriteString(f.paint(colorCode, "["+prefix+"]"))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")

	//   --> location
	if err.Location != "" {
		b.WriteString(pad)
		b.WriteString(f.paint(colorLocation, "-->"))
		b.WriteString(" ")
		b.WriteString(f.paint(colorLocation, err.Location))
		b.WriteString("\n")
	}

	if err.SourceLine != "" {
		b.WriteString(pad)
		b.WriteString(f.paint(colorPipe, " |\n"))
		b.WriteString(f.paint(colorPipe, fmt.Sprintf("%*d", width, err.Line)))
		b.WriteString(f.paint(colorPipe, " | "))
		b.WriteString(f.paint(colorSource, err.SourceLine))
		b.WriteString("\n")
		if err.Column > 0 {
			b.WriteString(pad)
			b.WriteString(f.paint(colorPipe, " | "))
			b.WriteString(strings.Repeat(" ", err.Column-1))
			b.WriteString(f.paint(colorCaret, "^"))
			b.WriteString("\n")
		}
	}

	if err.Hint != "" {
		b.WriteString(pad)
		b.WriteString(f.paint(colorPipe, " = "))
		b.WriteString(f.paint(colorHint, "hint: "))
		b.WriteString(err.Hint)
		b.WriteString("\n")
	}
	if err.Note != "" {
		b.WriteString(pad)
		b.WriteString(f.paint(colorPipe, " = "))
		b.WriteString(f.paint(colorNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMultiple formats multiple errors with consistent styling.
func (f *Formatter) FormatMultiple(errs []*FormattedError) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return f.Format(errs[0])
	}
	var b strings.Builder
	total := len(errs)
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, total)))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", total)))
	b.WriteString("\n")
	return b.String()
}

// FormatError formats any error. Errors that implement FormattableError get
// the full layout; others are shown as a plain message.
func (f *Formatter) FormatError(err error) string {
	if fe, ok := err.(FormattableError); ok {
		return f.Format(fe.ToFormatted())
	}
	return f.Format(&FormattedError{Message: err.Error()})
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}
