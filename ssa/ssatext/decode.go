package ssatext

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ccforge/backend/ssa"
)

type parser struct {
	lex *lexer
	cur token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("ssatext: line %d: %s", p.cur.line, fmt.Sprintf(format, args...))
}

func (p *parser) expectIdent() (string, error) {
	if p.cur.kind != tokIdent {
		return "", p.errorf("expected identifier, got %q", p.cur.text)
	}
	s := p.cur.text
	return s, p.advance()
}

func (p *parser) expectKeyword(kw string) error {
	s, err := p.expectIdent()
	if err != nil {
		return err
	}
	if s != kw {
		return p.errorf("expected %q, got %q", kw, s)
	}
	return nil
}

func (p *parser) expectNumber() (string, error) {
	if p.cur.kind != tokNumber {
		return "", p.errorf("expected number, got %q", p.cur.text)
	}
	s := p.cur.text
	return s, p.advance()
}

func (p *parser) expectPunct(text string) error {
	if p.cur.kind != tokPunct || p.cur.text != text {
		return p.errorf("expected %q, got %q", text, p.cur.text)
	}
	return p.advance()
}

func (p *parser) atPunct(text string) bool {
	return p.cur.kind == tokPunct && p.cur.text == text
}

func (p *parser) atIdent(text string) bool {
	return p.cur.kind == tokIdent && p.cur.text == text
}

func (p *parser) expectSymbol() (string, error) {
	tok, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(tok, "@") {
		return "", p.errorf("expected @-prefixed symbol, got %q", tok)
	}
	return tok[1:], nil
}

// Decode parses src into an ssa.Module.
func Decode(src string) (*ssa.Module, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	mod, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	return codegen(mod)
}

func (p *parser) parseModule() (astModule, error) {
	var mod astModule
	for p.cur.kind != tokEOF {
		switch {
		case p.atIdent("global"):
			g, err := p.parseGlobal()
			if err != nil {
				return mod, err
			}
			mod.globals = append(mod.globals, g)
		case p.atIdent("func"):
			f, err := p.parseFunc()
			if err != nil {
				return mod, err
			}
			mod.funcs = append(mod.funcs, f)
		default:
			return mod, p.errorf("expected %q or %q, got %q", "global", "func", p.cur.text)
		}
	}
	return mod, nil
}

func (p *parser) parseGlobal() (astGlobal, error) {
	var g astGlobal
	if err := p.expectKeyword("global"); err != nil {
		return g, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return g, err
	}
	g.name = name
	kind, err := p.expectIdent()
	if err != nil {
		return g, err
	}
	g.kind = kind
	switch kind {
	case "zero":
		sz, err := p.expectNumber()
		if err != nil {
			return g, err
		}
		al, err := p.expectNumber()
		if err != nil {
			return g, err
		}
		g.size = mustInt64(sz)
		g.align = mustInt64(al)
	case "bytes", "ascii":
		al, err := p.expectNumber()
		if err != nil {
			return g, err
		}
		g.align = mustInt64(al)
		for p.cur.kind == tokNumber {
			n, err := p.expectNumber()
			if err != nil {
				return g, err
			}
			g.bytes = append(g.bytes, byte(mustInt64(n)))
			if p.atPunct(",") {
				if err := p.advance(); err != nil {
					return g, err
				}
			}
		}
		g.size = int64(len(g.bytes))
	case "words":
		al, err := p.expectNumber()
		if err != nil {
			return g, err
		}
		g.align = mustInt64(al)
		for p.cur.kind == tokNumber {
			n, err := p.expectNumber()
			if err != nil {
				return g, err
			}
			var word [4]byte
			binary.LittleEndian.PutUint32(word[:], uint32(mustInt64(n)))
			g.bytes = append(g.bytes, word[:]...)
			if p.atPunct(",") {
				if err := p.advance(); err != nil {
					return g, err
				}
			}
		}
		g.size = int64(len(g.bytes))
	default:
		return g, p.errorf("unknown global kind %q", kind)
	}
	if p.cur.kind == tokIdent {
		if _, ok := linkageValues[p.cur.text]; ok {
			g.linkage = p.cur.text
			if err := p.advance(); err != nil {
				return g, err
			}
		}
	}
	return g, nil
}

func (p *parser) parseFunc() (astFunc, error) {
	var f astFunc
	if err := p.expectKeyword("func"); err != nil {
		return f, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return f, err
	}
	f.name = name
	linkage, err := p.expectIdent()
	if err != nil {
		return f, err
	}
	f.linkage = linkage
	if err := p.expectPunct("("); err != nil {
		return f, err
	}
	for !p.atPunct(")") {
		typ, err := p.expectIdent()
		if err != nil {
			return f, err
		}
		f.params = append(f.params, typ)
		if p.atPunct(",") {
			if err := p.advance(); err != nil {
				return f, err
			}
		} else {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return f, err
	}
	if err := p.expectPunct("->"); err != nil {
		return f, err
	}
	result, err := p.expectIdent()
	if err != nil {
		return f, err
	}
	f.result = result
	if err := p.expectPunct("{"); err != nil {
		return f, err
	}
	for p.atIdent("block") {
		b, err := p.parseBlock()
		if err != nil {
			return f, err
		}
		f.blocks = append(f.blocks, b)
	}
	if err := p.expectPunct("}"); err != nil {
		return f, err
	}
	return f, nil
}

func (p *parser) parseBlock() (astBlock, error) {
	var b astBlock
	if err := p.expectKeyword("block"); err != nil {
		return b, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return b, err
	}
	b.name = name
	if p.atIdent("entry") {
		b.entry = true
		if err := p.advance(); err != nil {
			return b, err
		}
	}
	if err := p.expectPunct("("); err != nil {
		return b, err
	}
	for !p.atPunct(")") {
		pname, err := p.expectIdent()
		if err != nil {
			return b, err
		}
		if err := p.expectPunct(":"); err != nil {
			return b, err
		}
		ptyp, err := p.expectIdent()
		if err != nil {
			return b, err
		}
		b.params = append(b.params, astParam{name: pname, typ: ptyp})
		if p.atPunct(",") {
			if err := p.advance(); err != nil {
				return b, err
			}
		} else {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return b, err
	}
	if err := p.expectPunct("{"); err != nil {
		return b, err
	}
	for !p.atPunct("}") {
		instr, err := p.parseInstr()
		if err != nil {
			return b, err
		}
		b.instrs = append(b.instrs, instr)
	}
	if err := p.expectPunct("}"); err != nil {
		return b, err
	}
	return b, nil
}

func (p *parser) parseBlockArgRef() (blockArgRef, error) {
	var r blockArgRef
	name, err := p.expectIdent()
	if err != nil {
		return r, err
	}
	r.block = name
	if err := p.expectPunct("("); err != nil {
		return r, err
	}
	for !p.atPunct(")") {
		a, err := p.expectIdent()
		if err != nil {
			return r, err
		}
		r.args = append(r.args, a)
		if p.atPunct(",") {
			if err := p.advance(); err != nil {
				return r, err
			}
		} else {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return r, err
	}
	return r, nil
}

func (p *parser) parseInstr() (instrAST, error) {
	line := p.cur.line
	first, err := p.expectIdent()
	if err != nil {
		return instrAST{}, err
	}
	ia := instrAST{op: first, line: line}
	if p.atPunct("=") {
		ia.dest = first
		ia.hasDest = true
		if err := p.advance(); err != nil {
			return ia, err
		}
		op, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.op = op
	}

	switch ia.op {
	case "load":
		addr, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.args = []string{addr}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		ia.typ, err = p.expectIdent()
		if err != nil {
			return ia, err
		}
	case "store":
		addr, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		val, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.args = []string{addr, val}
	case "access":
		base, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		off, err := p.expectNumber()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.args = []string{base}
		ia.imm = off
		ia.typ = typ
	case "binary":
		binOp, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		lhs, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		rhs, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.binOp = binOp
		ia.args = []string{lhs, rhs}
		ia.typ = typ
	case "unary":
		unOp, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		v, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.unaryOp = unOp
		ia.args = []string{v}
		ia.typ = typ
	case "cast":
		v, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.args = []string{v}
		ia.typ = typ
	case "call":
		sym, err := p.expectSymbol()
		if err != nil {
			return ia, err
		}
		ia.symbol = sym
		if err := p.expectPunct("("); err != nil {
			return ia, err
		}
		for !p.atPunct(")") {
			a, err := p.expectIdent()
			if err != nil {
				return ia, err
			}
			ia.callArgs = append(ia.callArgs, a)
			if p.atPunct(",") {
				if err := p.advance(); err != nil {
					return ia, err
				}
			} else {
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return ia, err
		}
		if p.atPunct(":") {
			if err := p.advance(); err != nil {
				return ia, err
			}
			ia.typ, err = p.expectIdent()
			if err != nil {
				return ia, err
			}
		}
	case "branch":
		cond, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		t, err := p.parseBlockArgRef()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		f, err := p.parseBlockArgRef()
		if err != nil {
			return ia, err
		}
		ia.args = []string{cond}
		ia.targets = []blockArgRef{t, f}
	case "jump":
		t, err := p.parseBlockArgRef()
		if err != nil {
			return ia, err
		}
		ia.targets = []blockArgRef{t}
	case "return":
		if !p.atPunct(";") {
			v, err := p.expectIdent()
			if err != nil {
				return ia, err
			}
			ia.args = []string{v}
		}
	case "globalvar":
		sym, err := p.expectSymbol()
		if err != nil {
			return ia, err
		}
		ia.symbol = sym
	case "alloca":
		sz, err := p.expectNumber()
		if err != nil {
			return ia, err
		}
		ia.imm = sz
	case "argref":
		idx, err := p.expectNumber()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.imm = idx
		ia.typ = typ
	case "const.i32":
		n, err := p.expectNumber()
		if err != nil {
			return ia, err
		}
		ia.imm = n
	case "const.bool":
		b, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.imm = b
	case "select":
		cond, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		t, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(","); err != nil {
			return ia, err
		}
		f, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.args = []string{cond, t, f}
		ia.typ = typ
	case "undef":
		if err := p.expectPunct(":"); err != nil {
			return ia, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ia, err
		}
		ia.typ = typ
	default:
		return ia, p.errorf("unknown instruction opcode %q", ia.op)
	}

	if err := p.expectPunct(";"); err != nil {
		return ia, err
	}
	return ia, nil
}

func mustInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return n
}
