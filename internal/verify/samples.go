package verify

import (
	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

// Sample is one descriptor the checks run on.
type Sample struct {
	Owner rtti.CtorID
	Type  *rtti.TypeInfo
}

// Samples builds the sample set of reg in a deterministic order: every
// zero-arity constructor, every parameterized constructor applied to int,
// to string and to one of its own instances, and a few pred and func types.
func Samples(reg *rtti.Registry) []Sample {
	b := reg.Builtins()
	intT, strT := reg.Ground(b.Int), reg.Ground(b.String)

	var out []Sample
	reg.Each(func(id rtti.CtorID, c *rtti.Constructor) bool {
		switch {
		case c.HigherOrder:
			return true
		case c.Arity == 0:
			out = append(out, Sample{Owner: id, Type: reg.Ground(id)})
		default:
			first := reg.MustNew(id, fill(c.Arity, intT)...)
			out = append(out,
				Sample{Owner: id, Type: first},
				Sample{Owner: id, Type: reg.MustNew(id, fill(c.Arity, strT)...)},
				Sample{Owner: id, Type: reg.MustNew(id, fill(c.Arity, first)...)},
			)
		}
		return true
	})

	ho := []struct {
		code func(int) (rtabi.HOCode, error)
		args []*rtti.TypeInfo
	}{
		{rtabi.MakePred, nil},
		{rtabi.MakePred, []*rtti.TypeInfo{intT}},
		{rtabi.MakePred, []*rtti.TypeInfo{intT, strT}},
		{rtabi.MakeFunc, []*rtti.TypeInfo{intT}},
		{rtabi.MakeFunc, []*rtti.TypeInfo{intT, strT}},
		{rtabi.MakeFunc, []*rtti.TypeInfo{strT, intT}},
	}
	for _, h := range ho {
		code, err := h.code(len(h.args))
		if err != nil {
			panic(err)
		}
		t, err := reg.HigherOrder(code, h.args...)
		if err != nil {
			panic(err)
		}
		out = append(out, Sample{Owner: t.Ctor(), Type: t})
	}
	return out
}

func fill(n int, t *rtti.TypeInfo) []*rtti.TypeInfo {
	args := make([]*rtti.TypeInfo, n)
	for i := range args {
		args[i] = t
	}
	return args
}
