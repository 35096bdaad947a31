package decl

import (
	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

// duLayout assigns primary tags to the functors of a discriminated union.
//
// Constants share tag 0. Every other functor gets a tag of its own while
// tags last; the remaining functors share the last tag and are told apart
// by a secondary tag in declaration order. With no tag to spare for the
// constants everything shares tag 0.
func duLayout(bits rtabi.TagBits, functors []*rtti.SimpleVector) rtti.LayoutTable {
	n := bits.NumTags()
	layout := make(rtti.LayoutTable, n)
	for i := range layout {
		layout[i] = rtti.UnusedEntry()
	}

	var consts []rtti.ConstFunctor
	var args []*rtti.SimpleVector
	for _, f := range functors {
		if f.Arity() == 0 {
			consts = append(consts, rtti.ConstFunctor{Name: f.Name, Ordinal: f.Ordinal})
		} else {
			args = append(args, f)
		}
	}

	if n == 1 && len(consts) > 0 && len(args) > 0 {
		layout[0] = rtti.ComplicatedEntry(&rtti.ComplicatedVector{Sharers: functors})
		return layout
	}

	next := 0
	if len(consts) > 0 {
		layout[0] = rtti.ConstEntry(&rtti.EnumVector{Functors: consts})
		next = 1
	}
	free := n - next
	for i, f := range args {
		if i < free-1 || len(args) <= free {
			layout[next+i] = rtti.SimpleEntry(f)
			continue
		}
		rest := args[i:]
		if len(rest) == 1 {
			layout[next+i] = rtti.SimpleEntry(f)
		} else {
			layout[next+i] = rtti.ComplicatedEntry(&rtti.ComplicatedVector{Sharers: rest})
		}
		break
	}
	return layout
}

func enumLayout(bits rtabi.TagBits, functors []*rtti.SimpleVector) (rtti.LayoutTable, *rtti.EnumVector) {
	v := &rtti.EnumVector{IsEnum: true, Functors: make([]rtti.ConstFunctor, len(functors))}
	for i, f := range functors {
		v.Functors[i] = rtti.ConstFunctor{Name: f.Name, Ordinal: f.Ordinal}
	}
	return rtti.ForAllTags(bits, rtti.ConstEntry(v)), v
}
