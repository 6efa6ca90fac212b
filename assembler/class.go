package assembler

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/errors"
)

// classDocument is the YAML form of a class:
//
//	class: demo/Counter
//	methods:
//	  - name: count
//	    desc: (I)I
//	    access: [public, static]
//	    maxStack: 1
//	    maxLocals: 2
//	    code: |
//	      iconst_0
//	      ireturn
//	    handlers:
//	      - {start: a, end: b, handler: c, type: java/lang/Exception}
type classDocument struct {
	Class   string           `yaml:"class"`
	Methods []methodDocument `yaml:"methods"`
}

type methodDocument struct {
	Name      string            `yaml:"name"`
	Desc      string            `yaml:"desc"`
	Access    accessList        `yaml:"access"`
	Static    bool              `yaml:"static"`
	MaxStack  int               `yaml:"maxStack"`
	MaxLocals int               `yaml:"maxLocals"`
	Code      yaml.Node         `yaml:"code"`
	Handlers  []handlerDocument `yaml:"handlers"`
}

type handlerDocument struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Handler string `yaml:"handler"`
	Type    string `yaml:"type"`
}

// accessList accepts either a list of flag names or one space separated
// string.
type accessList []string

func (a *accessList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = strings.Fields(node.Value)
		return nil
	}
	var flags []string
	if err := node.Decode(&flags); err != nil {
		return err
	}
	*a = flags
	return nil
}

// LoadClass assembles the methods of a YAML class document. Method code uses
// the listing syntax without .method and .end lines.
func LoadClass(data []byte, opts ...Option) ([]*bytecode.Method, error) {
	cfg := newConfig(opts)
	fail := func(line int, format string, args ...any) error {
		return errors.AssemblyErrorf(errors.E4004, errors.SourceLocation{Filename: cfg.filename, Line: line}, format, args...)
	}

	var doc classDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, fail(0, "empty class document")
		}
		return nil, fail(0, "%v", err)
	}
	if doc.Class == "" {
		return nil, fail(0, "missing class name")
	}

	methods := make([]*bytecode.Method, 0, len(doc.Methods))
	for i, md := range doc.Methods {
		if md.Name == "" || md.Desc == "" {
			return nil, fail(md.Code.Line, "method %d needs a name and a desc", i)
		}
		access, err := bytecode.ParseAccess(strings.Join(md.Access, " "))
		if err != nil {
			return nil, fail(md.Code.Line, "%s: %v", md.Name, err)
		}
		if md.Static {
			access |= bytecode.AccStatic
		}
		h := Header{
			Owner:     doc.Class,
			Name:      md.Name,
			Desc:      md.Desc,
			Access:    access,
			MaxStack:  md.MaxStack,
			MaxLocals: md.MaxLocals,
		}

		if md.Code.Kind == 0 {
			if !access.Has(bytecode.AccAbstract) && !access.Has(bytecode.AccNative) {
				return nil, fail(0, "method %s%s has no code", md.Name, md.Desc)
			}
			methods = append(methods, bytecode.NewMethod(bytecode.MethodParams{
				Owner:     h.Owner,
				Name:      h.Name,
				Desc:      h.Desc,
				Access:    h.Access,
				MaxStack:  h.MaxStack,
				MaxLocals: h.MaxLocals,
			}))
			continue
		}
		if md.Code.Kind != yaml.ScalarNode {
			return nil, fail(md.Code.Line, "code of %s%s must be a string", md.Name, md.Desc)
		}

		// Block scalars start on the line after the indicator.
		offset := md.Code.Line - 1
		if md.Code.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
			offset = md.Code.Line
		}
		opts := []Option{WithFilename(cfg.filename), withLineOffset(offset)}
		p, err := newParser(md.Code.Value, newConfig(opts))
		if err != nil {
			return nil, err
		}
		handlers := md.Handlers
		line := md.Code.Line
		m, err := p.parseBody(h, func(st *methodState) error {
			loc := errors.SourceLocation{Filename: cfg.filename, Line: line}
			for _, hd := range handlers {
				if hd.Start == "" || hd.End == "" || hd.Handler == "" {
					return fail(line, "handler of %s%s needs start, end and handler labels", h.Name, h.Desc)
				}
				typ := hd.Type
				if typ == "all" {
					typ = ""
				}
				st.b.Handler(st.ref(hd.Start, loc), st.ref(hd.End, loc), st.ref(hd.Handler, loc), typ)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}
