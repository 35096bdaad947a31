// Package decl builds type registries from TOML declaration files.
//
//	tag_bits = 2
//
//	[[types]]
//	module = "list"
//	name = "list"
//	params = ["T"]
//	functors = [
//	  { name = "[]" },
//	  { name = "[|]", args = ["T", "list(T)"] },
//	]
//
//	[[types]]
//	module = "app"
//	name = "ints"
//	equiv = "list(int)"
package decl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
	"rtti/internal/trace"
)

// DefaultTagBits is used when a file does not set tag_bits.
const DefaultTagBits = 2

// Kind values accepted in a declaration.
const (
	KindDU    = "du"
	KindEnum  = "enum"
	KindEquiv = "equiv"
	KindNoTag = "notag"
)

var (
	// ErrNoTypes indicates a declaration file without [[types]].
	ErrNoTypes = errors.New("no [[types]] declared")
	// ErrBadKind indicates a kind that does not fit the declared functors.
	ErrBadKind = errors.New("invalid type kind")
)

// File is the decoded form of a declaration file.
type File struct {
	TagBits int        `toml:"tag_bits"`
	Types   []TypeDecl `toml:"types"`
}

// TypeDecl declares one type constructor.
type TypeDecl struct {
	Module   string        `toml:"module"`
	Name     string        `toml:"name"`
	Params   []string      `toml:"params"`
	Kind     string        `toml:"kind"`
	Functors []FunctorDecl `toml:"functors"`
	Equiv    string        `toml:"equiv"`

	Unify      int64 `toml:"unify"`
	Index      int64 `toml:"index"`
	Compare    int64 `toml:"compare"`
	TermToType int64 `toml:"term_to_type"`
	TypeToTerm int64 `toml:"type_to_term"`
}

// FunctorDecl declares one functor with argument type expressions.
type FunctorDecl struct {
	Name string   `toml:"name"`
	Args []string `toml:"args"`
}

// Load reads a declaration file and returns a frozen registry.
func Load(ctx context.Context, path string) (*rtti.Registry, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	reg, err := build(ctx, &f, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a frozen registry from declaration text.
func Parse(ctx context.Context, data string) (*rtti.Registry, error) {
	var f File
	meta, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return build(ctx, &f, meta)
}

func build(ctx context.Context, f *File, meta toml.MetaData) (*rtti.Registry, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "decl.build")
	defer span.End("")

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if !meta.IsDefined("types") || len(f.Types) == 0 {
		return nil, ErrNoTypes
	}
	bits := DefaultTagBits
	if meta.IsDefined("tag_bits") {
		bits = f.TagBits
	}
	tb, err := safecast.Conv[rtabi.TagBits](bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", rtti.ErrTagBits, bits)
	}
	reg, err := rtti.NewRegistry(tb)
	if err != nil {
		return nil, err
	}
	span.WithExtra("tag_bits", strconv.Itoa(bits)).WithExtra("types", strconv.Itoa(len(f.Types)))

	ids := make([]rtti.CtorID, len(f.Types))
	for i := range f.Types {
		td := &f.Types[i]
		c, err := td.constructor()
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", td.label(), err)
		}
		if ids[i], err = reg.Declare(c); err != nil {
			return nil, fmt.Errorf("type %s: %w", td.label(), err)
		}
	}
	for i := range f.Types {
		td := &f.Types[i]
		if err := define(ctx, reg, ids[i], td); err != nil {
			return nil, fmt.Errorf("type %s: %w", td.label(), err)
		}
	}
	if err := reg.Freeze(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (td *TypeDecl) label() string {
	return fmt.Sprintf("%s.%s/%d", strings.TrimSpace(td.Module), strings.TrimSpace(td.Name), len(td.Params))
}

func (td *TypeDecl) constructor() (rtti.Constructor, error) {
	c := rtti.Constructor{Module: td.Module, Name: td.Name, Arity: len(td.Params)}
	seen := make(map[string]struct{}, len(td.Params))
	for _, p := range td.Params {
		if _, dup := seen[p]; dup {
			return c, fmt.Errorf("duplicate type parameter %q", p)
		}
		seen[p] = struct{}{}
	}
	addrs := []struct {
		dst *rtti.CodeAddr
		v   int64
		key string
	}{
		{&c.Unify, td.Unify, "unify"},
		{&c.Index, td.Index, "index"},
		{&c.Compare, td.Compare, "compare"},
		{&c.TermToType, td.TermToType, "term_to_type"},
		{&c.TypeToTerm, td.TypeToTerm, "type_to_term"},
	}
	for _, a := range addrs {
		v, err := safecast.Conv[uint64](a.v)
		if err != nil {
			return c, fmt.Errorf("%s address: %w", a.key, err)
		}
		*a.dst = rtti.CodeAddr(v)
	}
	return c, nil
}

// kind returns the declared kind, or infers one from the functors.
func (td *TypeDecl) kind() (string, error) {
	k := strings.ToLower(strings.TrimSpace(td.Kind))
	inferred := KindDU
	switch {
	case td.Equiv != "":
		inferred = KindEquiv
	case len(td.Functors) == 1 && len(td.Functors[0].Args) == 1:
		inferred = KindNoTag
	case allConstants(td.Functors):
		inferred = KindEnum
	}
	if k == "" {
		return inferred, nil
	}
	switch k {
	case KindEquiv:
		if td.Equiv == "" || len(td.Functors) > 0 {
			return "", fmt.Errorf("%w: equiv needs a target and no functors", ErrBadKind)
		}
	case KindEnum:
		if !allConstants(td.Functors) {
			return "", fmt.Errorf("%w: enum functors cannot take arguments", ErrBadKind)
		}
	case KindNoTag:
		if inferred != KindNoTag {
			return "", fmt.Errorf("%w: notag needs exactly one functor with one argument", ErrBadKind)
		}
	case KindDU:
		if td.Equiv != "" {
			return "", fmt.Errorf("%w: du cannot have an equiv target", ErrBadKind)
		}
	default:
		return "", fmt.Errorf("%w: %q (expected: du|enum|equiv|notag)", ErrBadKind, td.Kind)
	}
	return k, nil
}

func allConstants(fs []FunctorDecl) bool {
	if len(fs) == 0 {
		return false
	}
	for _, f := range fs {
		if len(f.Args) > 0 {
			return false
		}
	}
	return true
}

func define(ctx context.Context, reg *rtti.Registry, id rtti.CtorID, td *TypeDecl) error {
	_, span := trace.Start(ctx, trace.ScopeCtor, "ctor:"+td.label())
	defer span.End("")

	kind, err := td.kind()
	if err != nil {
		return err
	}
	span.WithExtra("kind", kind)
	sc := Scope{Module: strings.TrimSpace(td.Module), Params: td.Params}
	bits := reg.TagBits()

	if kind == KindEquiv {
		target, err := ParseTemplate(reg, td.Equiv, sc)
		if err != nil {
			return err
		}
		return reg.Define(id,
			rtti.ForAllTags(bits, rtti.EquivEntry(&rtti.EquivVector{Type: target})),
			&rtti.FunctorTable{Indicator: rtti.IndicatorEquiv, Equiv: target},
		)
	}

	if len(td.Functors) == 0 {
		return fmt.Errorf("%w: %s type without functors", ErrBadKind, kind)
	}
	functors := make([]*rtti.SimpleVector, len(td.Functors))
	names := make(map[string]struct{}, len(td.Functors))
	for i, fd := range td.Functors {
		name := strings.TrimSpace(fd.Name)
		if name == "" {
			return fmt.Errorf("functor %d has no name", i+1)
		}
		key := name + "/" + strconv.Itoa(len(fd.Args))
		if _, dup := names[key]; dup {
			return fmt.Errorf("duplicate functor %s", key)
		}
		names[key] = struct{}{}
		sv := &rtti.SimpleVector{Name: name, Ordinal: i}
		for j, expr := range fd.Args {
			p, err := ParseTemplate(reg, expr, sc)
			if err != nil {
				return fmt.Errorf("functor %s argument %d: %w", name, j+1, err)
			}
			sv.Args = append(sv.Args, p)
		}
		functors[i] = sv
	}

	switch kind {
	case KindEnum:
		layout, v := enumLayout(bits, functors)
		return reg.Define(id, layout, &rtti.FunctorTable{Indicator: rtti.IndicatorEnum, Enum: v})
	case KindNoTag:
		nv := &rtti.NoTagVector{Name: functors[0].Name, Arg: functors[0].Args[0]}
		return reg.Define(id,
			rtti.ForAllTags(bits, rtti.NoTagEntry(nv)),
			&rtti.FunctorTable{Indicator: rtti.IndicatorNoTag, NoTag: nv},
		)
	default:
		return reg.Define(id, duLayout(bits, functors), &rtti.FunctorTable{Indicator: rtti.IndicatorDU, DU: functors})
	}
}
