package decl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"rtti/internal/rtti"
)

// Scope resolves names inside type expressions.
type Scope struct {
	// Module is tried first for unqualified names.
	Module string
	// Params names the type parameters; Params[i] is placeholder $(i+1).
	Params []string
}

// ParseType parses a type expression without placeholders into a concrete
// descriptor, e.g. "list(int)" or "func(int, string) = bool".
func ParseType(reg *rtti.Registry, expr string) (*rtti.TypeInfo, error) {
	p, err := ParseTemplate(reg, expr, Scope{})
	if err != nil {
		return nil, err
	}
	t, ok := p.(*rtti.TypeInfo)
	if !ok {
		return nil, fmt.Errorf("type %q has free type variables", expr)
	}
	return t, nil
}

// ParseTemplate parses a type expression that may refer to the parameters
// in sc or to placeholders written $1, $2, ...
func ParseTemplate(reg *rtti.Registry, expr string, sc Scope) (rtti.Pseudo, error) {
	ps := &exprParser{reg: reg, src: expr, scope: sc}
	p, err := ps.parseType()
	if err != nil {
		return nil, err
	}
	ps.skipSpace()
	if ps.pos != len(ps.src) {
		return nil, ps.errorf("unexpected %q", ps.src[ps.pos:])
	}
	return p, nil
}

type exprParser struct {
	reg   *rtti.Registry
	src   string
	pos   int
	scope Scope
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *exprParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *exprParser) parseType() (rtti.Pseudo, error) {
	if p.accept('$') {
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		k, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil || k < 1 {
			return nil, p.errorf("bad placeholder")
		}
		return rtti.Var(k), nil
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type")
	}
	var args []rtti.Pseudo
	if p.accept('(') {
		if !p.accept(')') {
			for {
				a, err := p.parseType()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.accept(',') {
					continue
				}
				if !p.accept(')') {
					return nil, p.errorf("expected ',' or ')'")
				}
				break
			}
		}
	}

	switch name {
	case "pred", "builtin.pred":
		return p.reg.Apply(p.reg.Builtins().Pred, args...)
	case "func", "builtin.func":
		if !p.accept('=') {
			return nil, p.errorf("function type needs '= result'")
		}
		res, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return p.reg.Apply(p.reg.Builtins().Func, append(args, res)...)
	}

	if len(args) == 0 {
		for i, param := range p.scope.Params {
			if param == name {
				return rtti.Var(i + 1), nil
			}
		}
	}
	id, err := p.resolve(name, len(args))
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return p.reg.Apply(id, args...)
}

func (p *exprParser) resolve(name string, arity int) (rtti.CtorID, error) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		module, short := name[:i], name[i+1:]
		if id, ok := p.reg.ByName(module, short, arity); ok {
			return id, nil
		}
		return rtti.NoCtorID, fmt.Errorf("unknown type %s/%d", name, arity)
	}
	if p.scope.Module != "" {
		if id, ok := p.reg.ByName(p.scope.Module, name, arity); ok {
			return id, nil
		}
	}
	return p.reg.Resolve(name, arity)
}
