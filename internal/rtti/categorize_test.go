package rtti

import (
	"testing"

	"rtti/internal/rtabi"
)

func TestCategorizeTable(t *testing.T) {
	simple := &SimpleVector{Name: "f", Args: []Pseudo{Var(1)}}
	constant := &SimpleVector{Name: "c"}
	cases := []struct {
		name string
		ind  Indicator
		e    LayoutEntry
		want DataRep
	}{
		{"du complicated", IndicatorDU, ComplicatedEntry(&ComplicatedVector{Sharers: []*SimpleVector{constant, simple}}), RepComplicated},
		{"du shared constants", IndicatorDU, ComplicatedEntry(&ComplicatedVector{Sharers: []*SimpleVector{constant, constant}}), RepComplicatedConst},
		{"du simple", IndicatorDU, SimpleEntry(simple), RepSimple},
		{"du const", IndicatorDU, ConstEntry(&EnumVector{Functors: []ConstFunctor{{Name: "c"}}}), RepComplicatedConst},
		{"du unused", IndicatorDU, UnusedEntry(), RepUnknown},
		{"du empty complicated", IndicatorDU, ComplicatedEntry(&ComplicatedVector{}), RepUnknown},
		{"enum", IndicatorEnum, ConstEntry(&EnumVector{IsEnum: true}), RepEnum},
		{"notag", IndicatorNoTag, NoTagEntry(&NoTagVector{Name: "w", Arg: Var(1)}), RepNoTag},
		{"equiv", IndicatorEquiv, EquivEntry(&EquivVector{Type: &Template{Ctor: 1}}), RepEquiv},
		{"equiv var", IndicatorEquiv, EquivEntry(&EquivVector{Type: Var(1)}), RepEquivVar},
		{"equiv without target", IndicatorEquiv, EquivEntry(&EquivVector{}), RepUnknown},
		{"univ", IndicatorUniv, UnusedEntry(), RepUniv},
		{"special int", IndicatorSpecial, SpecialEntry(rtabi.LayoutInt), RepInt},
		{"special char", IndicatorSpecial, SpecialEntry(rtabi.LayoutCharacter), RepChar},
		{"special float", IndicatorSpecial, SpecialEntry(rtabi.LayoutFloat), RepFloat},
		{"special string", IndicatorSpecial, SpecialEntry(rtabi.LayoutString), RepString},
		{"special pred", IndicatorSpecial, SpecialEntry(rtabi.LayoutPredicate), RepPred},
		{"special univ", IndicatorSpecial, SpecialEntry(rtabi.LayoutUniv), RepUniv},
		{"special void", IndicatorSpecial, SpecialEntry(rtabi.LayoutVoid), RepVoid},
		{"special array", IndicatorSpecial, SpecialEntry(rtabi.LayoutArray), RepArray},
		{"special typeinfo", IndicatorSpecial, SpecialEntry(rtabi.LayoutTypeInfo), RepTypeInfo},
		{"special c_pointer", IndicatorSpecial, SpecialEntry(rtabi.LayoutCPointer), RepCPointer},
		{"special typeclassinfo", IndicatorSpecial, SpecialEntry(rtabi.LayoutTypeClassInfo), RepTypeClassInfo},
		{"special unassigned", IndicatorSpecial, SpecialEntry(rtabi.LayoutUnassigned), RepUnknown},
		{"special with simple entry", IndicatorSpecial, SimpleEntry(simple), RepUnknown},
		{"unknown indicator", Indicator(42), SimpleEntry(simple), RepUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.ind, tc.e); got != tc.want {
				t.Fatalf("Categorize = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCategorizeEveryTag(t *testing.T) {
	f := newFixture(t)
	want := map[CtorID][]DataRep{
		f.list:  {RepComplicatedConst, RepSimple, RepUnknown, RepUnknown},
		f.tree:  {RepComplicatedConst, RepSimple, RepSimple, RepComplicated},
		f.color: {RepEnum, RepEnum, RepEnum, RepEnum},
		f.box:   {RepNoTag, RepNoTag, RepNoTag, RepNoTag},
		f.alias: {RepEquiv, RepEquiv, RepEquiv, RepEquiv},
	}
	for id, reps := range want {
		for tag, rep := range reps {
			if got := f.r.CategorizeTag(id, tag); got != rep {
				t.Errorf("%s tag %d: got %v, want %v", f.r.MustLookup(id).Name, tag, got, rep)
			}
		}
	}
	if got := f.r.CategorizeTag(f.list, 4); got != RepUnknown {
		t.Errorf("tag past the table: got %v", got)
	}
}

func TestMustCategorize(t *testing.T) {
	f := newFixture(t)
	if rep := f.r.MustCategorize(f.tree, 3); rep != RepComplicated {
		t.Fatalf("tree tag 3: got %v", rep)
	}
	ce := catch(func() { f.r.MustCategorize(f.list, 2) })
	if ce == nil || ce.Kind != ErrNoRepresentation || ce.Name != "list" {
		t.Fatalf("expected no-representation error, got %v", ce)
	}
}

func TestResolveFunctorByTag(t *testing.T) {
	f := newFixture(t)
	c := f.r.MustLookup(f.tree)
	ref, ok := c.Layout.Resolve(3, 1)
	if !ok || ref.Name != "n4" || ref.Ordinal != 4 || ref.Arity() != 1 {
		t.Fatalf("Resolve(3, 1) = %+v, %v", ref, ok)
	}
	if _, ok := c.Layout.Resolve(3, 2); ok {
		t.Fatalf("secondary tag past the sharers should fail")
	}
	leaf, ok := c.Layout.Resolve(0, 0)
	if !ok || leaf.Name != "leaf" {
		t.Fatalf("Resolve(0, 0) = %+v, %v", leaf, ok)
	}
	if CompareFunctors(leaf, ref) != Less {
		t.Fatalf("functors should order by declaration")
	}
	if rep, ok := c.Layout[3].TagRep(); !ok || rep != SharedRemote {
		t.Fatalf("tag 3 rep = %v, %v", rep, ok)
	}
	if rep, ok := c.Layout[0].TagRep(); !ok || rep != SharedLocal {
		t.Fatalf("tag 0 rep = %v, %v", rep, ok)
	}
}

func TestCtorRep(t *testing.T) {
	f := newFixture(t)
	cases := map[CtorID]TypeCtorRep{
		f.list:            CtorRepDU,
		f.color:           CtorRepEnum,
		f.box:             CtorRepNoTag,
		f.alias:           CtorRepEquiv,
		f.b.Pred:          CtorRepPred,
		f.b.Univ:          CtorRepUniv,
		f.b.Array:         CtorRepArray,
		f.b.TypeClassInfo: CtorRepTypeClassInfo,
		CtorID(1 << 20):   CtorRepUnknown,
	}
	for id, want := range cases {
		if got := f.r.CtorRep(id); got != want {
			t.Errorf("CtorRep(%d) = %v, want %v", id, got, want)
		}
	}
}
