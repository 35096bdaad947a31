// Package image stores frozen type tables in a compact binary form so that
// tools can load them without re-reading declarations.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
	"rtti/internal/trace"
)

// SchemaVersion is bumped whenever the payload layout changes.
const SchemaVersion uint16 = 1

// ErrSchema is returned for images written by another schema version.
var ErrSchema = errors.New("unsupported table image schema")

// Payload is the serialized form of a registry. Builtin constructors are
// implied by the tag width and are not stored.
type Payload struct {
	Schema  uint16       `msgpack:"schema"`
	TagBits uint8        `msgpack:"tag_bits"`
	Ctors   []CtorRecord `msgpack:"ctors"`
}

// CtorRecord stores one constructor with its tables.
type CtorRecord struct {
	ID          uint32 `msgpack:"id"`
	Module      string `msgpack:"module"`
	Name        string `msgpack:"name"`
	Arity       int    `msgpack:"arity"`
	HigherOrder bool   `msgpack:"ho,omitempty"`

	Unify      uint64 `msgpack:"unify,omitempty"`
	Index      uint64 `msgpack:"index,omitempty"`
	Compare    uint64 `msgpack:"compare,omitempty"`
	TermToType uint64 `msgpack:"term_to_type,omitempty"`
	TypeToTerm uint64 `msgpack:"type_to_term,omitempty"`

	Indicator uint8           `msgpack:"indicator"`
	DU        []FunctorRecord `msgpack:"du,omitempty"`
	Enum      *EnumRecord     `msgpack:"enum,omitempty"`
	Equiv     []rtabi.Word    `msgpack:"equiv,omitempty"`
	NoTag     *FunctorRecord  `msgpack:"no_tag,omitempty"`
	Special   uint8           `msgpack:"special,omitempty"`
	Layout    []EntryRecord   `msgpack:"layout"`
}

// FunctorRecord stores a functor with packed argument templates.
type FunctorRecord struct {
	Name    string         `msgpack:"name"`
	Ordinal int            `msgpack:"ordinal"`
	Args    [][]rtabi.Word `msgpack:"args,omitempty"`
}

// EnumRecord stores constants sharing a tag.
type EnumRecord struct {
	IsEnum   bool     `msgpack:"is_enum"`
	Names    []string `msgpack:"names"`
	Ordinals []int    `msgpack:"ordinals"`
}

// EntryRecord stores one layout entry. Packed holds the layout word(s) and
// is checked against the decoded entry.
type EntryRecord struct {
	Kind    uint8           `msgpack:"kind"`
	Packed  []rtabi.Word    `msgpack:"packed"`
	Value   uint8           `msgpack:"value,omitempty"`
	Enum    *EnumRecord     `msgpack:"enum,omitempty"`
	Simple  *FunctorRecord  `msgpack:"simple,omitempty"`
	Sharers []FunctorRecord `msgpack:"sharers,omitempty"`
	Equiv   []rtabi.Word    `msgpack:"equiv,omitempty"`
	NoTag   *FunctorRecord  `msgpack:"no_tag,omitempty"`
}

// Save writes reg to path atomically.
func Save(ctx context.Context, path string, reg *rtti.Registry) error {
	_, span := trace.Start(ctx, trace.ScopePass, "image.save")
	defer span.End("")
	span.WithExtra("path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".rtti-image-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp) //nolint:errcheck
	}()

	if err := Encode(f, reg); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads an image written by Save and returns a frozen registry.
func Load(ctx context.Context, path string) (*rtti.Registry, error) {
	_, span := trace.Start(ctx, trace.ScopePass, "image.load")
	defer span.End("")
	span.WithExtra("path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close() //nolint:errcheck
	}()

	reg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	span.WithExtra("ctors", strconv.Itoa(reg.Len()))
	return reg, nil
}

// Encode serializes a frozen registry.
func Encode(w io.Writer, reg *rtti.Registry) error {
	p, err := ToPayload(reg)
	if err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(p)
}

// Decode reads a payload and rebuilds a frozen registry from it.
func Decode(r io.Reader) (*rtti.Registry, error) {
	var p Payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode table image: %w", err)
	}
	return FromPayload(&p)
}

// ToPayload converts a frozen registry into its serialized form.
func ToPayload(reg *rtti.Registry) (*Payload, error) {
	if !reg.Frozen() {
		return nil, rtti.ErrNotFrozen
	}
	base, err := rtti.NewRegistry(reg.TagBits())
	if err != nil {
		return nil, err
	}
	p := &Payload{Schema: SchemaVersion, TagBits: uint8(reg.TagBits())}
	var encErr error
	reg.Each(func(id rtti.CtorID, c *rtti.Constructor) bool {
		if int(id) <= base.Len() {
			return true
		}
		rec, err := encodeCtor(reg, id, c)
		if err != nil {
			encErr = fmt.Errorf("%s.%s: %w", c.Module, c.Name, err)
			return false
		}
		p.Ctors = append(p.Ctors, rec)
		return true
	})
	if encErr != nil {
		return nil, encErr
	}
	return p, nil
}

// FromPayload rebuilds and freezes a registry. Constructors are declared
// first so that tables may refer to any of them.
func FromPayload(p *Payload) (*rtti.Registry, error) {
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrSchema, p.Schema, SchemaVersion)
	}
	reg, err := rtti.NewRegistry(rtabi.TagBits(p.TagBits))
	if err != nil {
		return nil, err
	}
	for i := range p.Ctors {
		rec := &p.Ctors[i]
		id, err := reg.Declare(rtti.Constructor{
			Arity:       rec.Arity,
			Module:      rec.Module,
			Name:        rec.Name,
			HigherOrder: rec.HigherOrder,
			Unify:       rtti.CodeAddr(rec.Unify),
			Index:       rtti.CodeAddr(rec.Index),
			Compare:     rtti.CodeAddr(rec.Compare),
			TermToType:  rtti.CodeAddr(rec.TermToType),
			TypeToTerm:  rtti.CodeAddr(rec.TypeToTerm),
		})
		if err != nil {
			return nil, err
		}
		if uint32(id) != rec.ID {
			return nil, fmt.Errorf("%s.%s: stored as #%d, declared as #%d", rec.Module, rec.Name, rec.ID, id)
		}
	}
	d := decoder{reg: reg, bits: reg.TagBits()}
	for i := range p.Ctors {
		rec := &p.Ctors[i]
		layout, functors, err := d.tables(rec)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rec.Module, rec.Name, err)
		}
		if err := reg.Define(rtti.CtorID(rec.ID), layout, functors); err != nil {
			return nil, err
		}
	}
	if err := reg.Freeze(); err != nil {
		return nil, err
	}
	return reg, nil
}
