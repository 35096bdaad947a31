package decl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

func loadTestdata(t *testing.T) *rtti.Registry {
	t.Helper()
	reg, err := Load(context.Background(), filepath.Join("testdata", "types.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func mustID(t *testing.T, reg *rtti.Registry, module, name string, arity int) rtti.CtorID {
	t.Helper()
	id, ok := reg.ByName(module, name, arity)
	if !ok {
		t.Fatalf("%s.%s/%d not declared", module, name, arity)
	}
	return id
}

func TestLoadBuildsFrozenRegistry(t *testing.T) {
	reg := loadTestdata(t)
	if !reg.Frozen() {
		t.Fatalf("registry should be frozen")
	}
	if reg.TagBits() != 2 {
		t.Fatalf("tag bits = %d", reg.TagBits())
	}
	list := reg.MustLookup(mustID(t, reg, "list", "list", 1))
	if list.Unify != 0x1000 || list.Compare != 0x1010 || list.Index != 0 {
		t.Fatalf("code addresses not carried: %+v", list)
	}
	cases := []struct {
		module, name string
		arity        int
		want         rtti.TypeCtorRep
	}{
		{"list", "list", 1, rtti.CtorRepDU},
		{"app", "ints", 0, rtti.CtorRepEquiv},
		{"app", "color", 0, rtti.CtorRepEnum},
		{"app", "shape", 0, rtti.CtorRepDU},
		{"app", "wrapper", 1, rtti.CtorRepNoTag},
		{"app", "handler", 1, rtti.CtorRepEquiv},
		{"app", "same", 1, rtti.CtorRepEquivVar},
	}
	for _, tc := range cases {
		if got := reg.CtorRep(mustID(t, reg, tc.module, tc.name, tc.arity)); got != tc.want {
			t.Errorf("%s.%s: got %v, want %v", tc.module, tc.name, got, tc.want)
		}
	}
}

func TestRecursiveTemplate(t *testing.T) {
	reg := loadTestdata(t)
	list := reg.MustLookup(mustID(t, reg, "list", "list", 1))
	cons, ok := list.Layout.Resolve(1, 0)
	if !ok || cons.Name != "[|]" || cons.Ordinal != 1 {
		t.Fatalf("tag 1 = %+v, %v", cons, ok)
	}
	if got := reg.LabelPseudo(cons.Args[1]); got != "list.list($1)" {
		t.Fatalf("tail template = %q", got)
	}
	if cons.Args[0] != rtti.Pseudo(rtti.Var(1)) {
		t.Fatalf("head should be placeholder #1")
	}
}

func TestShapeLayoutSharesLastTag(t *testing.T) {
	reg := loadTestdata(t)
	shape := mustID(t, reg, "app", "shape", 0)
	want := []rtti.DataRep{rtti.RepComplicatedConst, rtti.RepSimple, rtti.RepSimple, rtti.RepComplicated}
	for tag, rep := range want {
		if got := reg.CategorizeTag(shape, tag); got != rep {
			t.Errorf("tag %d: got %v, want %v", tag, got, rep)
		}
	}
	c := reg.MustLookup(shape)
	for sec, name := range []string{"rect", "poly"} {
		f, ok := c.Layout.Resolve(3, sec)
		if !ok || f.Name != name {
			t.Errorf("secondary tag %d = %+v, want %s", sec, f, name)
		}
	}
}

func TestDULayout(t *testing.T) {
	mk := func(arities ...int) []*rtti.SimpleVector {
		out := make([]*rtti.SimpleVector, len(arities))
		for i, n := range arities {
			sv := &rtti.SimpleVector{Name: string(rune('a' + i)), Ordinal: i}
			for j := 0; j < n; j++ {
				sv.Args = append(sv.Args, rtti.Var(1))
			}
			out[i] = sv
		}
		return out
	}
	cases := []struct {
		name     string
		bits     rtabi.TagBits
		functors []*rtti.SimpleVector
		want     []rtti.EntryKind
	}{
		{"fits", 2, mk(0, 1, 1), []rtti.EntryKind{rtti.EntryConst, rtti.EntrySimple, rtti.EntrySimple, rtti.EntryUnused}},
		{"no constants", 2, mk(1, 2), []rtti.EntryKind{rtti.EntrySimple, rtti.EntrySimple, rtti.EntryUnused, rtti.EntryUnused}},
		{"overflow", 1, mk(0, 1, 1), []rtti.EntryKind{rtti.EntryConst, rtti.EntryComplicated}},
		{"exact", 1, mk(0, 1), []rtti.EntryKind{rtti.EntryConst, rtti.EntrySimple}},
		{"no tags", 0, mk(0, 1), []rtti.EntryKind{rtti.EntryComplicated}},
		{"no tags one functor", 0, mk(2), []rtti.EntryKind{rtti.EntrySimple}},
		{"no tags many", 0, mk(1, 1), []rtti.EntryKind{rtti.EntryComplicated}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := duLayout(tc.bits, tc.functors)
			if len(layout) != len(tc.want) {
				t.Fatalf("layout has %d entries, want %d", len(layout), len(tc.want))
			}
			for tag, k := range tc.want {
				if layout[tag].Kind != k {
					t.Errorf("tag %d: got %v, want %v", tag, layout[tag].Kind, k)
				}
			}
		})
	}
}

func TestParseType(t *testing.T) {
	reg := loadTestdata(t)
	cases := []struct {
		expr string
		want string
	}{
		{"int", "int"},
		{"list(int)", "list.list(int)"},
		{"list.list( list(string) )", "list.list(list.list(string))"},
		{"pred", "pred"},
		{"pred(int, app.color)", "pred(int, app.color)"},
		{"func(int) = string", "func(int) = string"},
		{"func = int", "func() = int"},
	}
	for _, tc := range cases {
		d, err := ParseType(reg, tc.expr)
		if err != nil {
			t.Errorf("ParseType(%q): %v", tc.expr, err)
			continue
		}
		if got := reg.Label(d); got != tc.want {
			t.Errorf("ParseType(%q) = %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	reg := loadTestdata(t)
	for _, expr := range []string{
		"",
		"list",
		"list(int",
		"list(int) extra",
		"nope",
		"app.nope",
		"func(int)",
		"list($1)",
		"$0",
	} {
		if _, err := ParseType(reg, expr); err == nil {
			t.Errorf("ParseType(%q) should fail", expr)
		}
	}
}

func TestParseTemplateParams(t *testing.T) {
	reg := loadTestdata(t)
	p, err := ParseTemplate(reg, "pred(K, list(V), $1)", Scope{Params: []string{"K", "V"}})
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	if got := reg.LabelPseudo(p); got != "pred($1, list.list($2), $1)" {
		t.Fatalf("got %q", got)
	}
}

func TestHandlerAliasCollapses(t *testing.T) {
	reg := loadTestdata(t)
	handler, err := ParseType(reg, "app.handler(int)")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	want, err := ParseType(reg, "func(int, string) = app.color")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	if res := reg.Compare(handler, want); res != rtti.Equal {
		t.Fatalf("handler(int) vs its expansion: %v", res)
	}
	got := reg.Collapse(handler, nil)
	if reg.Label(got) != "func(int, string) = app.color" {
		t.Fatalf("collapsed to %s", reg.Label(got))
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		is   error
		msg  string
	}{
		{"no types", `tag_bits = 2`, ErrNoTypes, ""},
		{"bad tag bits", "tag_bits = 7\n[[types]]\nmodule='m'\nname='t'\nfunctors=[{name='a'}]", rtti.ErrTagBits, ""},
		{"duplicate", "[[types]]\nmodule='m'\nname='t'\nfunctors=[{name='a'}]\n[[types]]\nmodule='m'\nname='t'\nfunctors=[{name='b'}]", rtti.ErrDuplicate, ""},
		{"bad kind", "[[types]]\nmodule='m'\nname='t'\nkind='record'\nfunctors=[{name='a'}]", ErrBadKind, ""},
		{"enum with args", "[[types]]\nmodule='m'\nname='t'\nkind='enum'\nfunctors=[{name='a', args=['int']}]", ErrBadKind, ""},
		{"unknown key", "[[types]]\nmodule='m'\nname='t'\nfunctorz=[{name='a'}]", nil, "unknown key"},
		{"unknown type", "[[types]]\nmodule='m'\nname='t'\nequiv='missing'", nil, "unknown type missing/0"},
		{"duplicate functor", "[[types]]\nmodule='m'\nname='t'\nfunctors=[{name='a'},{name='a'}]", nil, "duplicate functor a/0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tc.src)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("error %v is not %v", err, tc.is)
			}
			if tc.msg != "" && !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q does not mention %q", err, tc.msg)
			}
		})
	}
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[[types]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error mentioning %s, got %v", path, err)
	}
}
