package assembler

import (
	"math"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/desc"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/internal/token"
	"github.com/deepnoodle-ai/stackmap/op"
)

var arrayTypes = map[string]int32{
	"boolean": op.TBoolean,
	"char":    op.TChar,
	"float":   op.TFloat,
	"double":  op.TDouble,
	"byte":    op.TByte,
	"short":   op.TShort,
	"int":     op.TInt,
	"long":    op.TLong,
}

func (p *parser) instruction(mn token.Token, args []token.Token) error {
	code, ok := op.Lookup(strings.ToLower(mn.Literal))
	if !ok {
		err := p.errorf(errors.E4001, mn, "unknown mnemonic %q", mn.Literal)
		err.Suggestions = errors.SuggestSimilar(mn.Literal, op.Names())
		return err
	}
	b := p.method.b
	arity := func(n int) error {
		if len(args) != n {
			return p.errorf(errors.E4002, mn, "%s takes %d operand(s), got %d", code, n, len(args))
		}
		return nil
	}

	switch op.GetInfo(code).Operand {
	case op.OperandNone:
		if err := arity(0); err != nil {
			return err
		}
		b.Op(code)

	case op.OperandVar:
		if err := arity(1); err != nil {
			return err
		}
		v, err := p.intArg(args[0], 0, math.MaxUint16)
		if err != nil {
			return err
		}
		b.Var(code, int(v))

	case op.OperandInt:
		if err := arity(1); err != nil {
			return err
		}
		var v int64
		var err error
		switch code {
		case op.Newarray:
			if t, ok := arrayTypes[args[0].Literal]; ok {
				v = int64(t)
			} else {
				v, err = p.intArg(args[0], op.TBoolean, op.TLong)
			}
		case op.Bipush:
			v, err = p.intArg(args[0], math.MinInt8, math.MaxInt8)
		default:
			v, err = p.intArg(args[0], math.MinInt16, math.MaxInt16)
		}
		if err != nil {
			return err
		}
		b.Int(code, int32(v))

	case op.OperandIinc:
		if err := arity(2); err != nil {
			return err
		}
		v, err := p.intArg(args[0], 0, math.MaxUint16)
		if err != nil {
			return err
		}
		inc, err := p.intArg(args[1], math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		b.Iinc(int(v), int32(inc))

	case op.OperandConst:
		if err := arity(1); err != nil {
			return err
		}
		c, err := p.constant(args[0])
		if err != nil {
			return err
		}
		b.Ldc(c)

	case op.OperandJump:
		if err := arity(1); err != nil {
			return err
		}
		l, err := p.labelArg(args[0])
		if err != nil {
			return err
		}
		b.Jump(code, l)

	case op.OperandTableSwitch:
		n := len(args)
		if n < 3 || args[n-2].Literal != "default" {
			return p.errorf(errors.E4002, mn, "expected tableswitch <min> <labels...> default <label>")
		}
		low, err := p.intArg(args[0], math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		var cases []bytecode.Label
		for _, tok := range args[1 : n-2] {
			l, err := p.labelArg(tok)
			if err != nil {
				return err
			}
			cases = append(cases, l)
		}
		if len(cases) == 0 {
			return p.errorf(errors.E4002, mn, "tableswitch needs at least one case label")
		}
		if high := low + int64(len(cases)) - 1; high > math.MaxInt32 {
			return p.errorf(errors.E4002, args[0], "tableswitch range %d..%d overflows int32", low, high)
		}
		dflt, err := p.labelArg(args[n-1])
		if err != nil {
			return err
		}
		b.TableSwitch(int32(low), dflt, cases...)

	case op.OperandLookupSwitch:
		n := len(args)
		if n < 2 || args[n-2].Literal != "default" {
			return p.errorf(errors.E4002, mn, "expected lookupswitch <key:label...> default <label>")
		}
		var keys []int32
		var cases []bytecode.Label
		seen := map[int32]bool{}
		for _, tok := range args[:n-2] {
			k, name, ok := strings.Cut(tok.Literal, ":")
			key, err := strconv.ParseInt(k, 0, 32)
			if !ok || err != nil || name == "" {
				return p.errorf(errors.E4002, tok, "expected <key>:<label>, got %q", tok.Literal)
			}
			if seen[int32(key)] {
				return p.errorf(errors.E4002, tok, "duplicate lookupswitch key %d", key)
			}
			seen[int32(key)] = true
			keys = append(keys, int32(key))
			cases = append(cases, p.method.ref(name, p.loc(tok)))
		}
		dflt, err := p.labelArg(args[n-1])
		if err != nil {
			return err
		}
		b.LookupSwitch(dflt, keys, cases)

	case op.OperandField:
		if err := arity(2); err != nil {
			return err
		}
		owner, name, err := p.member(args[0])
		if err != nil {
			return err
		}
		if t, err := desc.Parse(args[1].Literal); err != nil || t.Sort() == desc.Method || t.Sort() == desc.Void {
			return p.errorf(errors.E4002, args[1], "invalid field descriptor %q", args[1].Literal)
		}
		b.Field(code, owner, name, args[1].Literal)

	case op.OperandMethod:
		itf := len(args) == 3 && args[2].Literal == "itf"
		if itf {
			args = args[:2]
		}
		if err := arity(2); err != nil {
			return err
		}
		owner, name, err := p.member(args[0])
		if err != nil {
			return err
		}
		if err := p.methodDesc(args[1]); err != nil {
			return err
		}
		b.Invoke(code, owner, name, args[1].Literal, itf)

	case op.OperandInvokeDynamic:
		if err := arity(2); err != nil {
			return err
		}
		if err := p.methodDesc(args[1]); err != nil {
			return err
		}
		b.InvokeDynamic(args[0].Literal, args[1].Literal, bytecode.Handle{})

	case op.OperandType:
		if err := arity(1); err != nil {
			return err
		}
		if args[0].Type != token.IDENT {
			return p.errorf(errors.E4002, args[0], "expected a class name, got %q", args[0].Literal)
		}
		b.Type(code, args[0].Literal)

	case op.OperandMultiANewArray:
		if err := arity(2); err != nil {
			return err
		}
		t, err := desc.Parse(args[0].Literal)
		if err != nil || t.Sort() != desc.Array {
			return p.errorf(errors.E4002, args[0], "expected an array descriptor, got %q", args[0].Literal)
		}
		dims, err := p.intArg(args[1], 1, int64(t.Dimensions()))
		if err != nil {
			return err
		}
		b.MultiANewArray(args[0].Literal, int32(dims))
	}
	return nil
}

// constant parses an ldc operand: a string, an int (an L suffix makes it a
// long), a float (F suffix) or double, or a class or method descriptor.
func (p *parser) constant(tok token.Token) (any, error) {
	lit := tok.Literal
	switch tok.Type {
	case token.STRING:
		return lit, nil
	case token.INT:
		if last := lit[len(lit)-1]; last == 'L' || last == 'l' {
			if v, err := strconv.ParseInt(lit[:len(lit)-1], 0, 64); err == nil {
				return v, nil
			}
		} else if v, err := strconv.ParseInt(lit, 0, 32); err == nil {
			return int32(v), nil
		}
	case token.FLOAT:
		switch lit[len(lit)-1] {
		case 'f', 'F':
			if v, err := strconv.ParseFloat(lit[:len(lit)-1], 32); err == nil {
				return float32(v), nil
			}
		case 'd', 'D':
			if v, err := strconv.ParseFloat(lit[:len(lit)-1], 64); err == nil {
				return v, nil
			}
		default:
			if v, err := strconv.ParseFloat(lit, 64); err == nil {
				return v, nil
			}
		}
	case token.IDENT:
		if t, err := desc.Parse(lit); err == nil && (t.IsReference() || t.Sort() == desc.Method) {
			return t, nil
		}
	}
	return nil, p.errorf(errors.E4002, tok, "invalid constant %q", lit)
}

// member splits "owner.name" at the last period.
func (p *parser) member(tok token.Token) (string, string, error) {
	i := strings.LastIndexByte(tok.Literal, '.')
	if tok.Type != token.IDENT || i <= 0 || i == len(tok.Literal)-1 {
		return "", "", p.errorf(errors.E4002, tok, "expected <owner>.<name>, got %q", tok.Literal)
	}
	return tok.Literal[:i], tok.Literal[i+1:], nil
}

func (p *parser) methodDesc(tok token.Token) error {
	if t, err := desc.Parse(tok.Literal); err != nil || t.Sort() != desc.Method {
		return p.errorf(errors.E4002, tok, "invalid method descriptor %q", tok.Literal)
	}
	return nil
}
