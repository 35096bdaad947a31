package image

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"rtti/internal/decl"
	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

const sampleDecl = `
tag_bits = 2

[[types]]
module = "list"
name = "list"
params = ["T"]
unify = 4096
functors = [
  { name = "[]" },
  { name = "[|]", args = ["T", "list(T)"] },
]

[[types]]
module = "app"
name = "color"
functors = [{ name = "red" }, { name = "green" }, { name = "blue" }]

[[types]]
module = "app"
name = "shape"
kind = "du"
functors = [
  { name = "empty" },
  { name = "circle", args = ["float"] },
  { name = "square", args = ["float"] },
  { name = "rect", args = ["float", "float"] },
  { name = "poly", args = ["list(float)"] },
]

[[types]]
module = "app"
name = "cell"
params = ["T"]
functors = [{ name = "cell", args = ["T"] }]

[[types]]
module = "app"
name = "callback"
params = ["T"]
equiv = "pred(T, func(T) = app.color)"

[[types]]
module = "app"
name = "same"
params = ["T"]
equiv = "T"
`

func sampleRegistry(t *testing.T) *rtti.Registry {
	t.Helper()
	reg, err := decl.Parse(context.Background(), sampleDecl)
	if err != nil {
		t.Fatalf("decl.Parse: %v", err)
	}
	return reg
}

func parse(t *testing.T, reg *rtti.Registry, expr string) *rtti.TypeInfo {
	t.Helper()
	d, err := decl.ParseType(reg, expr)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", expr, err)
	}
	return d
}

func TestRoundTrip(t *testing.T) {
	reg := sampleRegistry(t)
	var buf bytes.Buffer
	if err := Encode(&buf, reg); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Len() != reg.Len() || got.TagBits() != reg.TagBits() {
		t.Fatalf("decoded %d ctors with %d tag bits, want %d with %d", got.Len(), got.TagBits(), reg.Len(), reg.TagBits())
	}
	reg.Each(func(id rtti.CtorID, c *rtti.Constructor) bool {
		d := got.MustLookup(id)
		if d.Module != c.Module || d.Name != c.Name || d.Arity != c.Arity || d.Unify != c.Unify {
			t.Errorf("#%d: decoded %s.%s/%d, want %s.%s/%d", id, d.Module, d.Name, d.Arity, c.Module, c.Name, c.Arity)
		}
		if got.CtorRep(id) != reg.CtorRep(id) {
			t.Errorf("%s: rep %v, want %v", c.QualifiedName(), got.CtorRep(id), reg.CtorRep(id))
		}
		for tag := 0; tag < reg.NumTags(); tag++ {
			if a, b := got.CategorizeTag(id, tag), reg.CategorizeTag(id, tag); a != b {
				t.Errorf("%s tag %d: %v, want %v", c.QualifiedName(), tag, a, b)
			}
		}
		return true
	})

	// Descriptors built against the decoded registry behave the same.
	for _, pair := range [][2]string{
		{"app.callback(int)", "pred(int, func(int) = app.color)"},
		{"app.same(list(string))", "list(string)"},
	} {
		if res := got.Compare(parse(t, got, pair[0]), parse(t, got, pair[1])); res != rtti.Equal {
			t.Errorf("%s vs %s: %v", pair[0], pair[1], res)
		}
	}
	shape := got.MustLookup(mustID(t, got, "app", "shape"))
	if f, ok := shape.Layout.Resolve(3, 1); !ok || f.Name != "poly" {
		t.Fatalf("shape tag 3/1 = %+v, %v", f, ok)
	}
}

func mustID(t *testing.T, reg *rtti.Registry, module, name string) rtti.CtorID {
	t.Helper()
	id, ok := reg.ByName(module, name, 0)
	if !ok {
		t.Fatalf("%s.%s missing", module, name)
	}
	return id
}

func TestSaveLoad(t *testing.T) {
	reg := sampleRegistry(t)
	path := filepath.Join(t.TempDir(), "out", "types.rtti")
	if err := Save(context.Background(), path, reg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Frozen() {
		t.Fatalf("loaded registry should be frozen")
	}
	if matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".rtti-image-*")); len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("loading a missing file should fail")
	}
}

func TestSchemaMismatch(t *testing.T) {
	p, err := ToPayload(sampleRegistry(t))
	if err != nil {
		t.Fatalf("ToPayload: %v", err)
	}
	p.Schema = SchemaVersion + 1
	data, err := msgpack.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestRejectsTamperedLayoutWord(t *testing.T) {
	p, err := ToPayload(sampleRegistry(t))
	if err != nil {
		t.Fatalf("ToPayload: %v", err)
	}
	for i := range p.Ctors {
		if p.Ctors[i].Name == "shape" {
			p.Ctors[i].Layout[1].Packed = p.Ctors[i].Layout[2].Packed
		}
	}
	if _, err := FromPayload(p); err == nil {
		t.Fatalf("mismatched layout word should be rejected")
	}
}

func TestToPayloadRequiresFrozen(t *testing.T) {
	reg, err := rtti.NewRegistry(2)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := ToPayload(reg); !errors.Is(err, rtti.ErrNotFrozen) {
		t.Fatalf("expected ErrNotFrozen, got %v", err)
	}
}

func TestPseudoWords(t *testing.T) {
	reg := sampleRegistry(t)
	list, _ := reg.ByName("list", "list", 1)
	b := reg.Builtins()
	cases := []struct {
		name string
		p    rtti.Pseudo
		want []rtabi.Word
	}{
		{"placeholder", rtti.Var(2), []rtabi.Word{2}},
		{"ground", reg.Ground(b.Int), []rtabi.Word{rtabi.RefWord(uint32(b.Int))}},
		{"template", reg.MustApply(list, rtti.Var(1)), []rtabi.Word{rtabi.RefWord(uint32(list)), 1}},
		{"pred arity", reg.MustApply(b.Pred, reg.Ground(b.Int), rtti.Var(1)), []rtabi.Word{
			rtabi.RefWord(uint32(b.Pred)), 2, rtabi.RefWord(uint32(b.Int)), 1,
		}},
		{"nullary pred", reg.Ground(b.Pred), []rtabi.Word{rtabi.RefWord(uint32(b.Pred)), 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			words, err := EncodePseudo(reg, tc.p)
			if err != nil {
				t.Fatalf("EncodePseudo: %v", err)
			}
			if len(words) != len(tc.want) {
				t.Fatalf("words = %v, want %v", words, tc.want)
			}
			for i := range words {
				if words[i] != tc.want[i] {
					t.Fatalf("words = %v, want %v", words, tc.want)
				}
			}
			back, err := DecodePseudo(reg, words)
			if err != nil {
				t.Fatalf("DecodePseudo: %v", err)
			}
			if reg.LabelPseudo(back) != reg.LabelPseudo(tc.p) {
				t.Fatalf("decoded %s, want %s", reg.LabelPseudo(back), reg.LabelPseudo(tc.p))
			}
		})
	}
}

func TestDecodePseudoErrors(t *testing.T) {
	reg := sampleRegistry(t)
	list, _ := reg.ByName("list", "list", 1)
	pred := reg.Builtins().Pred
	for name, words := range map[string][]rtabi.Word{
		"empty":         nil,
		"missing arg":   {rtabi.RefWord(uint32(list))},
		"trailing":      {1, 2},
		"unknown ctor":  {rtabi.RefWord(1 << 20)},
		"missing arity": {rtabi.RefWord(uint32(pred))},
		"huge arity":    {rtabi.RefWord(uint32(pred)), rtabi.Word(rtabi.MaxHOArity + 1)},
		"placeholder 0": {0},
	} {
		if _, err := DecodePseudo(reg, words); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestPackEntry(t *testing.T) {
	reg := sampleRegistry(t)
	shape := reg.MustLookup(mustID(t, reg, "app", "shape"))
	bits := reg.TagBits()
	for tag, e := range shape.Layout {
		words, err := PackEntry(bits, e)
		if err != nil {
			t.Fatalf("tag %d: %v", tag, err)
		}
		lt, _, n, err := bits.UnpackLayoutEntry(words)
		if err != nil || n != len(words) {
			t.Fatalf("tag %d: unpack %v (%d of %d words)", tag, err, n, len(words))
		}
		if lt != e.Tag() {
			t.Errorf("tag %d: layout tag %d, want %d", tag, lt, e.Tag())
		}
	}
	words, err := PackEntry(bits, rtti.UnusedEntry())
	if err != nil {
		t.Fatalf("unused: %v", err)
	}
	lt, v, _, err := bits.UnpackLayoutEntry(words)
	if err != nil || lt != rtabi.LayoutConstTag || v != rtabi.Word(rtabi.LayoutUnused) {
		t.Fatalf("unused entry packed as (%d, %d), %v", lt, v, err)
	}
}
