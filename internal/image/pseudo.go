package image

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

var errTruncated = errors.New("packed descriptor is truncated")

// EncodePseudo flattens a template into prefix word form: a placeholder is
// a single word at or below rtabi.MaxVarInt; an application is the
// constructor reference, the arity word for pred and func, then the packed
// arguments.
func EncodePseudo(reg *rtti.Registry, p rtti.Pseudo) ([]rtabi.Word, error) {
	return appendPseudo(nil, reg, p)
}

func appendPseudo(dst []rtabi.Word, reg *rtti.Registry, p rtti.Pseudo) ([]rtabi.Word, error) {
	switch t := p.(type) {
	case rtti.Var:
		w, err := rtabi.VarWord(int(t))
		if err != nil {
			return nil, err
		}
		return append(dst, w), nil
	case *rtti.TypeInfo:
		if t == nil || t.Released() {
			return nil, fmt.Errorf("cannot pack a released or nil descriptor")
		}
		args := make([]rtti.Pseudo, t.Arity())
		for i := range args {
			args[i] = t.Arg(i)
		}
		return appendApp(dst, reg, t.Ctor(), args)
	case *rtti.Template:
		if t == nil {
			return nil, fmt.Errorf("cannot pack a nil template")
		}
		return appendApp(dst, reg, t.Ctor, t.Args)
	default:
		return nil, fmt.Errorf("cannot pack %T", p)
	}
}

func appendApp(dst []rtabi.Word, reg *rtti.Registry, id rtti.CtorID, args []rtti.Pseudo) ([]rtabi.Word, error) {
	dst = append(dst, rtabi.RefWord(uint32(id)))
	if reg.IsHigherOrder(id) {
		n, err := safecast.Conv[rtabi.Word](len(args))
		if err != nil {
			return nil, err
		}
		dst = append(dst, n)
	}
	var err error
	for _, a := range args {
		if dst, err = appendPseudo(dst, reg, a); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// DecodePseudo rebuilds a template from its packed form. The constructors
// it references must already be declared in reg.
func DecodePseudo(reg *rtti.Registry, words []rtabi.Word) (rtti.Pseudo, error) {
	p, n, err := decodePseudo(reg, words)
	if err != nil {
		return nil, err
	}
	if n != len(words) {
		return nil, fmt.Errorf("%d trailing words after packed descriptor", len(words)-n)
	}
	return p, nil
}

func decodePseudo(reg *rtti.Registry, words []rtabi.Word) (rtti.Pseudo, int, error) {
	if len(words) == 0 {
		return nil, 0, errTruncated
	}
	if rtabi.IsVariable(words[0]) {
		k, err := rtabi.VarIndex(words[0])
		if err != nil {
			return nil, 0, err
		}
		return rtti.Var(k), 1, nil
	}
	ref, err := rtabi.RefID(words[0])
	if err != nil {
		return nil, 0, err
	}
	id := rtti.CtorID(ref)
	c, ok := reg.Lookup(id)
	if !ok {
		return nil, 0, fmt.Errorf("packed descriptor refers to unknown constructor #%d", id)
	}
	pos := 1
	arity := c.Arity
	if c.HigherOrder {
		if pos >= len(words) {
			return nil, 0, errTruncated
		}
		arity, err = safecast.Conv[int](words[pos])
		if err != nil {
			return nil, 0, err
		}
		if arity > rtabi.MaxHOArity {
			return nil, 0, fmt.Errorf("higher-order arity %d too large", arity)
		}
		pos++
	}
	args := make([]rtti.Pseudo, arity)
	for i := range args {
		a, n, err := decodePseudo(reg, words[pos:])
		if err != nil {
			return nil, 0, err
		}
		args[i] = a
		pos += n
	}
	p, err := reg.Apply(id, args...)
	if err != nil {
		return nil, 0, err
	}
	return p, pos, nil
}
