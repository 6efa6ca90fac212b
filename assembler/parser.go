package assembler

import (
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/internal/lexer"
	"github.com/deepnoodle-ai/stackmap/internal/token"
)

// Header describes a method whose body is parsed on its own.
type Header struct {
	Owner     string
	Name      string
	Desc      string
	Access    bytecode.Access
	MaxStack  int
	MaxLocals int
}

// Parse assembles every method of a listing, in order.
func Parse(src string, opts ...Option) ([]*bytecode.Method, error) {
	p, err := newParser(src, newConfig(opts))
	if err != nil {
		return nil, err
	}
	return p.parseListing()
}

// ParseBody assembles a single method body: instructions, labels, .limit
// and .catch directives, without the surrounding .method and .end lines.
// The limits in h apply unless the body overrides them.
func ParseBody(h Header, src string, opts ...Option) (*bytecode.Method, error) {
	p, err := newParser(src, newConfig(opts))
	if err != nil {
		return nil, err
	}
	return p.parseBody(h, nil)
}

type parser struct {
	cfg    config
	source []string
	lines  [][]token.Token
	owner  string
	method *methodState
}

func newParser(src string, cfg config) (*parser, error) {
	p := &parser{
		cfg:    cfg,
		source: strings.Split(src, "\n"),
		owner:  cfg.owner,
	}
	l := lexer.New(src)
	l.SetFilename(cfg.filename)
	var line []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, p.errorf(errors.E4002, tok, "%v", err)
		}
		switch tok.Type {
		case token.NEWLINE, token.EOF:
			if len(line) > 0 {
				p.lines = append(p.lines, line)
				line = nil
			}
			if tok.Type == token.EOF {
				return p, nil
			}
		default:
			line = append(line, tok)
		}
	}
}

func (p *parser) parseListing() ([]*bytecode.Method, error) {
	var methods []*bytecode.Method
	for _, line := range p.lines {
		first := line[0]
		switch first.Type {
		case token.CLASS:
			if p.method != nil {
				return nil, p.errorf(errors.E4004, first, ".class inside method %s", p.method.name)
			}
			if len(line) != 2 || line[1].Type != token.IDENT {
				return nil, p.errorf(errors.E4002, first, "expected .class <name>")
			}
			p.owner = line[1].Literal
		case token.METHOD:
			if p.method != nil {
				return nil, p.errorf(errors.E4004, first, "missing .end method for %s", p.method.name)
			}
			m, err := p.methodHeader(line)
			if err != nil {
				return nil, err
			}
			p.method = m
		case token.END:
			if p.method == nil {
				return nil, p.errorf(errors.E4004, first, ".end outside of a method")
			}
			if len(line) != 2 || line[1].Literal != "method" {
				return nil, p.errorf(errors.E4002, first, "expected .end method")
			}
			m, err := p.method.finish(p)
			if err != nil {
				return nil, err
			}
			methods = append(methods, m)
			p.method = nil
		default:
			if p.method == nil {
				return nil, p.errorf(errors.E4004, first, "%s outside of a method", first.Literal)
			}
			if err := p.bodyLine(line); err != nil {
				return nil, err
			}
		}
	}
	if p.method != nil {
		return nil, p.errorf(errors.E4004, p.method.start, "missing .end method for %s", p.method.name)
	}
	return methods, nil
}

// parseBody assembles the whole input as the body of one method. extra, if
// set, runs after the last line and before labels are resolved.
func (p *parser) parseBody(h Header, extra func(m *methodState) error) (*bytecode.Method, error) {
	p.method = newMethodState(h, token.Token{})
	for _, line := range p.lines {
		if line[0].Type.IsDirective() && line[0].Type != token.LIMIT && line[0].Type != token.CATCH {
			return nil, p.errorf(errors.E4004, line[0], "%s is not allowed in a method body", line[0].Literal)
		}
		if err := p.bodyLine(line); err != nil {
			return nil, err
		}
	}
	if extra != nil {
		if err := extra(p.method); err != nil {
			return nil, err
		}
	}
	return p.method.finish(p)
}

func (p *parser) bodyLine(line []token.Token) error {
	if line[0].Type == token.LABEL {
		if err := p.method.define(p, line[0]); err != nil {
			return err
		}
		line = line[1:]
		if len(line) == 0 {
			return nil
		}
	}
	first := line[0]
	switch first.Type {
	case token.LIMIT:
		return p.limit(line)
	case token.CATCH:
		return p.catch(line)
	case token.IDENT:
		return p.instruction(first, line[1:])
	case token.ILLEGAL:
		return p.errorf(errors.E4002, first, "unknown directive %s", first.Literal)
	default:
		return p.errorf(errors.E4002, first, "unexpected %q", first.Literal)
	}
}

// methodHeader parses ".method [flags...] name(descriptor)".
func (p *parser) methodHeader(line []token.Token) (*methodState, error) {
	if len(line) < 2 {
		return nil, p.errorf(errors.E4002, line[0], "expected .method [flags] name(descriptor)")
	}
	sig := line[len(line)-1]
	i := strings.IndexByte(sig.Literal, '(')
	if sig.Type != token.IDENT || i <= 0 {
		return nil, p.errorf(errors.E4002, sig, "expected name(descriptor), got %q", sig.Literal)
	}
	name, descriptor := sig.Literal[:i], sig.Literal[i:]
	if _, err := desc.ArgumentTypes(descriptor); err != nil {
		return nil, p.errorf(errors.E4002, sig, "%s: %v", sig.Literal, err)
	}
	var flags []string
	for _, tok := range line[1 : len(line)-1] {
		flags = append(flags, tok.Literal)
	}
	access, err := bytecode.ParseAccess(strings.Join(flags, " "))
	if err != nil {
		return nil, p.errorf(errors.E4002, line[1], "%v", err)
	}
	h := Header{Owner: p.owner, Name: name, Desc: descriptor, Access: access}
	return newMethodState(h, line[0]), nil
}

// limit parses ".limit stack|locals <n>".
func (p *parser) limit(line []token.Token) error {
	if len(line) != 3 {
		return p.errorf(errors.E4002, line[0], "expected .limit stack|locals <n>")
	}
	n, err := p.intArg(line[2], 0, 65535)
	if err != nil {
		return err
	}
	switch line[1].Literal {
	case "stack":
		p.method.b.MaxStack(int(n))
	case "locals":
		p.method.b.MaxLocals(int(n))
	default:
		return p.errorf(errors.E4002, line[1], "expected stack or locals, got %q", line[1].Literal)
	}
	return nil
}

// catch parses ".catch <type|all> from <label> to <label> using <label>".
func (p *parser) catch(line []token.Token) error {
	if len(line) != 8 || line[2].Literal != "from" || line[4].Literal != "to" || line[6].Literal != "using" {
		return p.errorf(errors.E4002, line[0], "expected .catch <type|all> from <label> to <label> using <label>")
	}
	typ := line[1].Literal
	if typ == "all" {
		typ = ""
	}
	var labels [3]bytecode.Label
	for i, tok := range []token.Token{line[3], line[5], line[7]} {
		l, err := p.labelArg(tok)
		if err != nil {
			return err
		}
		labels[i] = l
	}
	p.method.b.Handler(labels[0], labels[1], labels[2], typ)
	return nil
}

func (p *parser) loc(tok token.Token) errors.SourceLocation {
	pos := tok.StartPosition
	var src string
	if pos.Line < len(p.source) {
		src = strings.TrimRight(p.source[pos.Line], "\r")
	}
	return errors.SourceLocation{
		Filename: p.cfg.filename,
		Line:     pos.LineNumber() + p.cfg.lineOffset,
		Column:   pos.ColumnNumber(),
		Source:   src,
	}
}

func (p *parser) errorf(code errors.ErrorCode, tok token.Token, format string, args ...any) *errors.AssemblyError {
	return errors.AssemblyErrorf(code, p.loc(tok), format, args...)
}

// methodState is a method being assembled. Labels are created on first
// mention, whether a definition or a use.
type methodState struct {
	name    string
	b       *bytecode.Builder
	start   token.Token
	labels  map[string]bytecode.Label
	defined map[string]bool
	uses    map[string]errors.SourceLocation
	order   []string
}

func newMethodState(h Header, start token.Token) *methodState {
	b := bytecode.NewBuilder(h.Owner, h.Name, h.Desc, h.Access).
		MaxStack(h.MaxStack).
		MaxLocals(h.MaxLocals)
	return &methodState{
		name:    h.Owner + "." + h.Name + h.Desc,
		b:       b,
		start:   start,
		labels:  map[string]bytecode.Label{},
		defined: map[string]bool{},
		uses:    map[string]errors.SourceLocation{},
	}
}

func (m *methodState) label(name string) bytecode.Label {
	l, ok := m.labels[name]
	if !ok {
		l = m.b.NewLabel()
		m.labels[name] = l
	}
	return l
}

// ref returns the label for a use of name at loc.
func (m *methodState) ref(name string, loc errors.SourceLocation) bytecode.Label {
	if _, ok := m.uses[name]; !ok {
		m.uses[name] = loc
		m.order = append(m.order, name)
	}
	return m.label(name)
}

func (m *methodState) define(p *parser, tok token.Token) error {
	if m.defined[tok.Literal] {
		return p.errorf(errors.E4003, tok, "label %q defined twice", tok.Literal)
	}
	m.defined[tok.Literal] = true
	m.b.Mark(m.label(tok.Literal))
	return nil
}

func (m *methodState) finish(p *parser) (*bytecode.Method, error) {
	for _, name := range m.order {
		if m.defined[name] {
			continue
		}
		err := errors.AssemblyErrorf(errors.E4003, m.uses[name], "undefined label %q", name)
		var known []string
		for n := range m.defined {
			known = append(known, n)
		}
		err.Suggestions = errors.SuggestSimilar(name, known)
		return nil, err
	}
	method, err := m.b.Build()
	if err != nil {
		return nil, p.errorf(errors.E4002, m.start, "%s: %v", m.name, err)
	}
	return method, nil
}

func (p *parser) labelArg(tok token.Token) (bytecode.Label, error) {
	if tok.Type != token.IDENT {
		return 0, p.errorf(errors.E4002, tok, "expected a label, got %q", tok.Literal)
	}
	return p.method.ref(tok.Literal, p.loc(tok)), nil
}

func (p *parser) intArg(tok token.Token, lo, hi int64) (int64, error) {
	if tok.Type != token.INT {
		return 0, p.errorf(errors.E4002, tok, "expected an integer, got %q", tok.Literal)
	}
	v, err := strconv.ParseInt(tok.Literal, 0, 64)
	if err != nil || v < lo || v > hi {
		return 0, p.errorf(errors.E4002, tok, "integer %s outside of [%d, %d]", tok.Literal, lo, hi)
	}
	return v, nil
}
