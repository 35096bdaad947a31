package rtti

import (
	"errors"
	"testing"

	"rtti/internal/rtabi"
)

type fixture struct {
	r *Registry
	b Builtins

	list, alias, color, tree, id, box, cycA, cycB CtorID

	cons  *SimpleVector
	enum  *EnumVector
	nodes []*SimpleVector
}

// newFixture builds a frozen registry with two bits of primary tag:
//
//	list(T)  ---> [] ; [|](T, list(T))
//	alias    ==   list(int)
//	color    ---> red ; green ; blue
//	tree     ---> leaf ; n1(int) ; n2(int) ; n3(float) ; n4(string)
//	id(T)    ==   T
//	box(T)   ---> box(T)
//	cyc_a    ==   cyc_b,   cyc_b == cyc_a
func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := NewRegistry(2)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	f := &fixture{r: r, b: r.Builtins()}
	b := f.b

	f.list = mustDeclare(t, r, "list", "list", 1)
	f.cons = &SimpleVector{
		Name:    "[|]",
		Ordinal: 1,
		Args:    []Pseudo{Var(1), &Template{Ctor: f.list, Args: []Pseudo{Var(1)}}},
	}
	nilVec := &EnumVector{Functors: []ConstFunctor{{Name: "[]", Ordinal: 0}}}
	mustDefine(t, r, f.list,
		LayoutTable{ConstEntry(nilVec), SimpleEntry(f.cons), UnusedEntry(), UnusedEntry()},
		&FunctorTable{Indicator: IndicatorDU, DU: []*SimpleVector{{Name: "[]", Ordinal: 0}, f.cons}},
	)

	target := r.MustApply(f.list, r.Ground(b.Int))
	f.alias = mustRegister(t, r, Constructor{
		Module:   "test",
		Name:     "alias",
		Layout:   ForAllTags(r.TagBits(), EquivEntry(&EquivVector{Type: target})),
		Functors: &FunctorTable{Indicator: IndicatorEquiv, Equiv: target},
	})

	f.enum = &EnumVector{IsEnum: true, Functors: []ConstFunctor{
		{Name: "red", Ordinal: 0},
		{Name: "green", Ordinal: 1},
		{Name: "blue", Ordinal: 2},
	}}
	f.color = mustRegister(t, r, Constructor{
		Module:   "test",
		Name:     "color",
		Layout:   ForAllTags(r.TagBits(), ConstEntry(f.enum)),
		Functors: &FunctorTable{Indicator: IndicatorEnum, Enum: f.enum},
	})

	arg := func(id CtorID) []Pseudo { return []Pseudo{r.Ground(id)} }
	f.nodes = []*SimpleVector{
		{Name: "n1", Ordinal: 1, Args: arg(b.Int)},
		{Name: "n2", Ordinal: 2, Args: arg(b.Int)},
		{Name: "n3", Ordinal: 3, Args: arg(b.Float)},
		{Name: "n4", Ordinal: 4, Args: arg(b.String)},
	}
	leaf := &EnumVector{Functors: []ConstFunctor{{Name: "leaf", Ordinal: 0}}}
	f.tree = mustRegister(t, r, Constructor{
		Module: "test",
		Name:   "tree",
		Layout: LayoutTable{
			ConstEntry(leaf),
			SimpleEntry(f.nodes[0]),
			SimpleEntry(f.nodes[1]),
			ComplicatedEntry(&ComplicatedVector{Sharers: f.nodes[2:]}),
		},
		Functors: &FunctorTable{
			Indicator: IndicatorDU,
			DU:        append([]*SimpleVector{{Name: "leaf", Ordinal: 0}}, f.nodes...),
		},
	})

	f.id = mustRegister(t, r, Constructor{
		Module:   "test",
		Name:     "id",
		Arity:    1,
		Layout:   ForAllTags(r.TagBits(), EquivEntry(&EquivVector{Type: Var(1)})),
		Functors: &FunctorTable{Indicator: IndicatorEquiv, Equiv: Var(1)},
	})

	boxVec := &NoTagVector{Name: "box", Arg: Var(1)}
	f.box = mustRegister(t, r, Constructor{
		Module:   "test",
		Name:     "box",
		Arity:    1,
		Layout:   ForAllTags(r.TagBits(), NoTagEntry(boxVec)),
		Functors: &FunctorTable{Indicator: IndicatorNoTag, NoTag: boxVec},
	})

	f.cycA = mustDeclare(t, r, "test", "cyc_a", 0)
	f.cycB = mustDeclare(t, r, "test", "cyc_b", 0)
	for _, pair := range [][2]CtorID{{f.cycA, f.cycB}, {f.cycB, f.cycA}} {
		to := r.Ground(pair[1])
		mustDefine(t, r, pair[0],
			ForAllTags(r.TagBits(), EquivEntry(&EquivVector{Type: to})),
			&FunctorTable{Indicator: IndicatorEquiv, Equiv: to},
		)
	}

	if err := r.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	return f
}

func mustDeclare(t *testing.T, r *Registry, module, name string, arity int) CtorID {
	t.Helper()
	id, err := r.Declare(Constructor{Module: module, Name: name, Arity: arity})
	if err != nil {
		t.Fatalf("Declare %s.%s: %v", module, name, err)
	}
	return id
}

func mustDefine(t *testing.T, r *Registry, id CtorID, layout LayoutTable, functors *FunctorTable) {
	t.Helper()
	if err := r.Define(id, layout, functors); err != nil {
		t.Fatalf("Define #%d: %v", id, err)
	}
}

func mustRegister(t *testing.T, r *Registry, c Constructor) CtorID {
	t.Helper()
	id, err := r.Register(c)
	if err != nil {
		t.Fatalf("Register %s.%s: %v", c.Module, c.Name, err)
	}
	return id
}

func (f *fixture) ground(id CtorID) *TypeInfo { return f.r.Ground(id) }

func (f *fixture) listOf(t *TypeInfo) *TypeInfo { return f.r.MustNew(f.list, t) }

func (f *fixture) pred(t *testing.T, args ...*TypeInfo) *TypeInfo {
	t.Helper()
	code, err := rtabi.MakePred(len(args))
	if err != nil {
		t.Fatalf("MakePred: %v", err)
	}
	d, err := f.r.HigherOrder(code, args...)
	if err != nil {
		t.Fatalf("HigherOrder: %v", err)
	}
	return d
}

func (f *fixture) fn(t *testing.T, args ...*TypeInfo) *TypeInfo {
	t.Helper()
	code, err := rtabi.MakeFunc(len(args))
	if err != nil {
		t.Fatalf("MakeFunc: %v", err)
	}
	d, err := f.r.HigherOrder(code, args...)
	if err != nil {
		t.Fatalf("HigherOrder: %v", err)
	}
	return d
}

// catch runs fn and returns the CorruptError it panicked with, if any.
func catch(fn func()) (ce *CorruptError) {
	var err error
	func() {
		defer Recover(&err)
		fn()
	}()
	errors.As(err, &ce)
	return ce
}
