package rtti

import (
	"fmt"

	"rtti/internal/rtabi"
)

// EntryKind selects the payload of a LayoutEntry.
type EntryKind uint8

const (
	EntryUnused EntryKind = iota
	EntryConst
	EntrySpecial
	EntrySimple
	EntryComplicated
	EntryEquiv
	EntryNoTag
)

func (k EntryKind) String() string {
	switch k {
	case EntryUnused:
		return "unused"
	case EntryConst:
		return "const"
	case EntrySpecial:
		return "special"
	case EntrySimple:
		return "simple"
	case EntryComplicated:
		return "complicated"
	case EntryEquiv:
		return "equiv"
	case EntryNoTag:
		return "no_tag"
	default:
		return fmt.Sprintf("EntryKind(%d)", k)
	}
}

// LayoutEntry describes the values carrying one primary tag.
type LayoutEntry struct {
	Kind EntryKind

	Value       rtabi.LayoutValue // EntrySpecial
	Enum        *EnumVector       // EntryConst
	Simple      *SimpleVector     // EntrySimple
	Complicated *ComplicatedVector
	Equiv       *EquivVector
	NoTag       *NoTagVector
}

// Entry constructors ---------------------------------------------------------

func UnusedEntry() LayoutEntry { return LayoutEntry{Kind: EntryUnused} }

func ConstEntry(v *EnumVector) LayoutEntry { return LayoutEntry{Kind: EntryConst, Enum: v} }

func SpecialEntry(v rtabi.LayoutValue) LayoutEntry {
	return LayoutEntry{Kind: EntrySpecial, Value: v}
}

func SimpleEntry(v *SimpleVector) LayoutEntry { return LayoutEntry{Kind: EntrySimple, Simple: v} }

func ComplicatedEntry(v *ComplicatedVector) LayoutEntry {
	return LayoutEntry{Kind: EntryComplicated, Complicated: v}
}

func EquivEntry(v *EquivVector) LayoutEntry { return LayoutEntry{Kind: EntryEquiv, Equiv: v} }

func NoTagEntry(v *NoTagVector) LayoutEntry { return LayoutEntry{Kind: EntryNoTag, NoTag: v} }

// Tag returns the layout tag the entry is packed with, or -1 for unused slots.
func (e LayoutEntry) Tag() int {
	switch e.Kind {
	case EntryConst, EntrySpecial:
		return rtabi.LayoutConstTag
	case EntrySimple:
		return rtabi.LayoutSimpleTag
	case EntryComplicated:
		return rtabi.LayoutComplicatedTag
	case EntryEquiv:
		return rtabi.LayoutEquivTag
	case EntryNoTag:
		return rtabi.LayoutNoTagTag
	default:
		return -1
	}
}

// DiscUnionTagRep says how values with this primary tag are stored.
type DiscUnionTagRep uint8

const (
	SharedLocal DiscUnionTagRep = iota
	Unshared
	SharedRemote
)

func (r DiscUnionTagRep) String() string {
	switch r {
	case SharedLocal:
		return "shared_local"
	case Unshared:
		return "unshared"
	case SharedRemote:
		return "shared_remote"
	default:
		return fmt.Sprintf("DiscUnionTagRep(%d)", r)
	}
}

// TagRep classifies a discriminated-union entry.
func (e LayoutEntry) TagRep() (DiscUnionTagRep, bool) {
	switch e.Kind {
	case EntryConst:
		return SharedLocal, true
	case EntrySimple:
		return Unshared, true
	case EntryComplicated:
		return SharedRemote, true
	default:
		return 0, false
	}
}

// EnumVector lists constants sharing one tag. For enumerations the value is
// the index into Functors.
type EnumVector struct {
	IsEnum   bool
	Functors []ConstFunctor
}

// ConstFunctor is a zero-arity functor.
type ConstFunctor struct {
	Name    string
	Ordinal int
}

// Ref returns a functor view.
func (c ConstFunctor) Ref() FunctorRef {
	return FunctorRef{Name: c.Name, Ordinal: c.Ordinal}
}

// NumSharers returns the number of constants in the vector.
func (v *EnumVector) NumSharers() int {
	if v == nil {
		return 0
	}
	return len(v.Functors)
}

// SimpleVector describes one functor with its argument templates.
type SimpleVector struct {
	Name    string
	Args    []Pseudo
	Ordinal int
}

// Arity returns the number of functor arguments.
func (v *SimpleVector) Arity() int {
	if v == nil {
		return 0
	}
	return len(v.Args)
}

// Ref returns a functor view.
func (v *SimpleVector) Ref() FunctorRef {
	return FunctorRef{Name: v.Name, Ordinal: v.Ordinal, Args: v.Args}
}

// ComplicatedVector holds the functors sharing one primary tag; the
// secondary tag indexes Sharers.
type ComplicatedVector struct {
	Sharers []*SimpleVector
}

// NumSharers returns the number of functors sharing the tag.
func (v *ComplicatedVector) NumSharers() int {
	if v == nil {
		return 0
	}
	return len(v.Sharers)
}

// Sharer selects a functor by secondary tag.
func (v *ComplicatedVector) Sharer(secondary int) (*SimpleVector, bool) {
	if v == nil || secondary < 0 || secondary >= len(v.Sharers) {
		return nil, false
	}
	return v.Sharers[secondary], true
}

// allConst reports whether every sharer is a constant.
func (v *ComplicatedVector) allConst() bool {
	for _, s := range v.Sharers {
		if s.Arity() > 0 {
			return false
		}
	}
	return true
}

// EquivVector names the type an alias stands for.
type EquivVector struct {
	Type Pseudo
}

// NoTagVector describes the single-argument wrapper of a no-tag type.
type NoTagVector struct {
	Name string
	Arg  Pseudo
}

// Ref returns a functor view.
func (v *NoTagVector) Ref() FunctorRef {
	return FunctorRef{Name: v.Name, Ordinal: 0, Args: []Pseudo{v.Arg}}
}

// LayoutTable has one entry per primary tag value.
type LayoutTable []LayoutEntry

// Entry returns the entry for a primary tag.
func (t LayoutTable) Entry(tag int) (LayoutEntry, bool) {
	if tag < 0 || tag >= len(t) {
		return LayoutEntry{}, false
	}
	return t[tag], true
}

// Resolve finds the functor of a value from its primary tag and sub-index:
// the constant number for const entries, the secondary tag for complicated
// entries, ignored otherwise.
func (t LayoutTable) Resolve(tag, sub int) (FunctorRef, bool) {
	e, ok := t.Entry(tag)
	if !ok {
		return FunctorRef{}, false
	}
	switch e.Kind {
	case EntryConst:
		if e.Enum == nil || sub < 0 || sub >= len(e.Enum.Functors) {
			return FunctorRef{}, false
		}
		return e.Enum.Functors[sub].Ref(), true
	case EntrySimple:
		if e.Simple == nil {
			return FunctorRef{}, false
		}
		return e.Simple.Ref(), true
	case EntryComplicated:
		s, ok := e.Complicated.Sharer(sub)
		if !ok {
			return FunctorRef{}, false
		}
		return s.Ref(), true
	case EntryNoTag:
		if e.NoTag == nil {
			return FunctorRef{}, false
		}
		return e.NoTag.Ref(), true
	default:
		return FunctorRef{}, false
	}
}

// ForAllTags builds a table repeating one entry, the shape used by builtins,
// enumerations, equivalences and no-tag types.
func ForAllTags(bits rtabi.TagBits, e LayoutEntry) LayoutTable {
	t := make(LayoutTable, bits.NumTags())
	for i := range t {
		t[i] = e
	}
	return t
}
