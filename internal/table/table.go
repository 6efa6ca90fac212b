// Package table renders bordered text tables whose cells may contain ANSI
// color codes.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// width is the display width of s, ignoring color codes.
func width(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// Table accumulates a header and rows and writes them on Render.
type Table struct {
	writer          io.Writer
	header          []string
	rows            [][]string
	alignments      []Alignment
	headerAlignment []Alignment
}

func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignments []Alignment) *Table {
	t.alignments = alignments
	return t
}

func (t *Table) WithHeaderAlignment(alignments []Alignment) *Table {
	t.headerAlignment = alignments
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table. Rows shorter than the widest row are padded
// with empty cells.
func (t *Table) Render() {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return
	}
	border := t.border(widths)
	fmt.Fprintln(t.writer, border)
	if len(t.header) > 0 {
		fmt.Fprintln(t.writer, t.line(t.header, widths, t.headerAlignment))
		fmt.Fprintln(t.writer, border)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, t.line(row, widths, t.alignments))
	}
	fmt.Fprintln(t.writer, border)
}

func (t *Table) columnWidths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], width(cell))
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) border(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('+')
	}
	return sb.String()
}

func (t *Table) line(row []string, widths []int, alignments []Alignment) string {
	var sb strings.Builder
	sb.WriteByte('|')
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		align := AlignLeft
		if i < len(alignments) {
			align = alignments[i]
		}
		sb.WriteByte(' ')
		sb.WriteString(pad(cell, w, align))
		sb.WriteString(" |")
	}
	return sb.String()
}

func pad(s string, w int, align Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
