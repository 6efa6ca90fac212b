// Package lexer splits assembly source into tokens.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stackmap/internal/token"
)

// Lexer reads tokens from one input string. Whitespace other than newlines
// separates tokens; a '#' starts a comment running to the end of the line.
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int
	file      string
}

// New returns a lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// SetFilename sets the file name reported in token positions.
func (l *Lexer) SetFilename(name string) {
	l.file = name
}

// Next returns the next token. At the end of the input it returns an EOF
// token, repeatedly.
func (l *Lexer) Next() (token.Token, error) {
	l.skipBlank()
	start := l.position()
	if l.pos >= len(l.input) {
		return token.Token{Type: token.EOF, StartPosition: start, EndPosition: start}, nil
	}
	switch c := l.input[l.pos]; c {
	case '\n':
		l.pos++
		tok := token.Token{Type: token.NEWLINE, Literal: "\n", StartPosition: start, EndPosition: start.Advance(1)}
		l.line++
		l.lineStart = l.pos
		return tok, nil
	case '"':
		return l.readString(start)
	default:
		word := l.readWord()
		typ, lit := classify(word)
		return token.Token{
			Type:          typ,
			Literal:       lit,
			StartPosition: start,
			EndPosition:   start.Advance(len(word)),
		}, nil
	}
}

// Tokens lexes the whole input, up to and including the EOF token.
func (l *Lexer) Tokens() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

func (l *Lexer) skipBlank() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n', '#', '"':
			return l.input[start:l.pos]
		}
		l.pos++
	}
	return l.input[start:]
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	begin := l.pos
	l.pos++
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '\n':
			return l.illegal(start, begin), fmt.Errorf("unterminated string literal at %d:%d",
				start.LineNumber(), start.ColumnNumber())
		case '"':
			l.pos++
			raw := l.input[begin:l.pos]
			value, err := strconv.Unquote(raw)
			if err != nil {
				return l.illegal(start, begin), fmt.Errorf("invalid string literal %s at %d:%d",
					raw, start.LineNumber(), start.ColumnNumber())
			}
			return token.Token{
				Type:          token.STRING,
				Literal:       value,
				StartPosition: start,
				EndPosition:   start.Advance(len(raw)),
			}, nil
		}
		l.pos++
	}
	return l.illegal(start, begin), fmt.Errorf("unterminated string literal at %d:%d",
		start.LineNumber(), start.ColumnNumber())
}

func (l *Lexer) illegal(start token.Position, begin int) token.Token {
	end := min(l.pos, len(l.input))
	l.pos = end
	return token.Token{
		Type:          token.ILLEGAL,
		Literal:       l.input[begin:end],
		StartPosition: start,
		EndPosition:   start.Advance(end - begin),
	}
}

// classify returns the type of a bare word and its literal. Labels lose
// their trailing colon.
func classify(word string) (token.Type, string) {
	switch {
	case word[0] == '.':
		return token.LookupDirective(word), word
	case len(word) > 1 && strings.IndexByte(word, ':') == len(word)-1:
		return token.LABEL, word[:len(word)-1]
	case strings.Contains(word, ":"):
		return token.IDENT, word
	}
	body := strings.TrimLeft(word, "+-")
	if len(word)-len(body) > 1 || body == "" || body[0] < '0' || body[0] > '9' {
		return token.IDENT, word
	}
	lower := strings.ToLower(body)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return token.INT, word
	case strings.ContainsAny(lower, ".e") || strings.ContainsAny(lower[len(lower)-1:], "fd"):
		return token.FLOAT, word
	}
	return token.INT, word
}
