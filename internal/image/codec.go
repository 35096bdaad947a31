package image

import (
	"fmt"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

func encodeCtor(reg *rtti.Registry, id rtti.CtorID, c *rtti.Constructor) (CtorRecord, error) {
	rec := CtorRecord{
		ID:          uint32(id),
		Module:      c.Module,
		Name:        c.Name,
		Arity:       c.Arity,
		HigherOrder: c.HigherOrder,
		Unify:       uint64(c.Unify),
		Index:       uint64(c.Index),
		Compare:     uint64(c.Compare),
		TermToType:  uint64(c.TermToType),
		TypeToTerm:  uint64(c.TypeToTerm),
		Indicator:   uint8(c.Functors.Indicator),
	}
	var err error
	f := c.Functors
	switch f.Indicator {
	case rtti.IndicatorDU:
		rec.DU = make([]FunctorRecord, len(f.DU))
		for i, sv := range f.DU {
			if rec.DU[i], err = encodeFunctor(reg, sv.Name, sv.Ordinal, sv.Args); err != nil {
				return rec, err
			}
		}
	case rtti.IndicatorEnum:
		rec.Enum = encodeEnum(f.Enum)
	case rtti.IndicatorEquiv:
		if rec.Equiv, err = EncodePseudo(reg, f.Equiv); err != nil {
			return rec, err
		}
	case rtti.IndicatorNoTag:
		fr, err := encodeFunctor(reg, f.NoTag.Name, 0, []rtti.Pseudo{f.NoTag.Arg})
		if err != nil {
			return rec, err
		}
		rec.NoTag = &fr
	case rtti.IndicatorSpecial:
		rec.Special = uint8(f.Special)
	}

	rec.Layout = make([]EntryRecord, len(c.Layout))
	for tag, e := range c.Layout {
		if rec.Layout[tag], err = encodeEntry(reg, e); err != nil {
			return rec, fmt.Errorf("layout[%d]: %w", tag, err)
		}
	}
	return rec, nil
}

func encodeEntry(reg *rtti.Registry, e rtti.LayoutEntry) (EntryRecord, error) {
	packed, err := PackEntry(reg.TagBits(), e)
	if err != nil {
		return EntryRecord{}, err
	}
	rec := EntryRecord{Kind: uint8(e.Kind), Packed: packed}
	switch e.Kind {
	case rtti.EntrySpecial:
		rec.Value = uint8(e.Value)
	case rtti.EntryConst:
		rec.Enum = encodeEnum(e.Enum)
	case rtti.EntrySimple:
		fr, err := encodeFunctor(reg, e.Simple.Name, e.Simple.Ordinal, e.Simple.Args)
		if err != nil {
			return rec, err
		}
		rec.Simple = &fr
	case rtti.EntryComplicated:
		rec.Sharers = make([]FunctorRecord, len(e.Complicated.Sharers))
		for i, sv := range e.Complicated.Sharers {
			if rec.Sharers[i], err = encodeFunctor(reg, sv.Name, sv.Ordinal, sv.Args); err != nil {
				return rec, err
			}
		}
	case rtti.EntryEquiv:
		if rec.Equiv, err = EncodePseudo(reg, e.Equiv.Type); err != nil {
			return rec, err
		}
	case rtti.EntryNoTag:
		fr, err := encodeFunctor(reg, e.NoTag.Name, 0, []rtti.Pseudo{e.NoTag.Arg})
		if err != nil {
			return rec, err
		}
		rec.NoTag = &fr
	}
	return rec, nil
}

func encodeFunctor(reg *rtti.Registry, name string, ordinal int, args []rtti.Pseudo) (FunctorRecord, error) {
	fr := FunctorRecord{Name: name, Ordinal: ordinal}
	if len(args) > 0 {
		fr.Args = make([][]rtabi.Word, len(args))
	}
	for i, a := range args {
		words, err := EncodePseudo(reg, a)
		if err != nil {
			return fr, fmt.Errorf("functor %s argument %d: %w", name, i+1, err)
		}
		fr.Args[i] = words
	}
	return fr, nil
}

func encodeEnum(v *rtti.EnumVector) *EnumRecord {
	if v == nil {
		return nil
	}
	rec := &EnumRecord{
		IsEnum:   v.IsEnum,
		Names:    make([]string, len(v.Functors)),
		Ordinals: make([]int, len(v.Functors)),
	}
	for i, cf := range v.Functors {
		rec.Names[i] = cf.Name
		rec.Ordinals[i] = cf.Ordinal
	}
	return rec
}

type decoder struct {
	reg  *rtti.Registry
	bits rtabi.TagBits
}

func (d *decoder) tables(rec *CtorRecord) (rtti.LayoutTable, *rtti.FunctorTable, error) {
	f := &rtti.FunctorTable{Indicator: rtti.Indicator(rec.Indicator)}
	var err error
	switch f.Indicator {
	case rtti.IndicatorDU:
		f.DU = make([]*rtti.SimpleVector, len(rec.DU))
		for i := range rec.DU {
			if f.DU[i], err = d.simple(&rec.DU[i]); err != nil {
				return nil, nil, err
			}
		}
	case rtti.IndicatorEnum:
		if f.Enum, err = decodeEnum(rec.Enum); err != nil {
			return nil, nil, err
		}
	case rtti.IndicatorEquiv:
		if f.Equiv, err = DecodePseudo(d.reg, rec.Equiv); err != nil {
			return nil, nil, fmt.Errorf("alias target: %w", err)
		}
	case rtti.IndicatorNoTag:
		if f.NoTag, err = d.noTag(rec.NoTag); err != nil {
			return nil, nil, err
		}
	case rtti.IndicatorSpecial:
		f.Special = rtabi.LayoutValue(rec.Special)
	case rtti.IndicatorUniv:
	default:
		return nil, nil, fmt.Errorf("unknown functor indicator %d", rec.Indicator)
	}

	layout := make(rtti.LayoutTable, len(rec.Layout))
	for tag := range rec.Layout {
		e, err := d.entry(&rec.Layout[tag])
		if err != nil {
			return nil, nil, fmt.Errorf("layout[%d]: %w", tag, err)
		}
		if err := checkPacked(d.bits, rec.Layout[tag].Packed, e); err != nil {
			return nil, nil, fmt.Errorf("layout[%d]: %w", tag, err)
		}
		layout[tag] = e
	}
	return layout, f, nil
}

func (d *decoder) entry(rec *EntryRecord) (rtti.LayoutEntry, error) {
	switch rtti.EntryKind(rec.Kind) {
	case rtti.EntryUnused:
		return rtti.UnusedEntry(), nil
	case rtti.EntrySpecial:
		return rtti.SpecialEntry(rtabi.LayoutValue(rec.Value)), nil
	case rtti.EntryConst:
		v, err := decodeEnum(rec.Enum)
		if err != nil {
			return rtti.LayoutEntry{}, err
		}
		return rtti.ConstEntry(v), nil
	case rtti.EntrySimple:
		if rec.Simple == nil {
			return rtti.LayoutEntry{}, fmt.Errorf("simple entry without functor")
		}
		sv, err := d.simple(rec.Simple)
		if err != nil {
			return rtti.LayoutEntry{}, err
		}
		return rtti.SimpleEntry(sv), nil
	case rtti.EntryComplicated:
		cv := &rtti.ComplicatedVector{Sharers: make([]*rtti.SimpleVector, len(rec.Sharers))}
		for i := range rec.Sharers {
			sv, err := d.simple(&rec.Sharers[i])
			if err != nil {
				return rtti.LayoutEntry{}, err
			}
			cv.Sharers[i] = sv
		}
		return rtti.ComplicatedEntry(cv), nil
	case rtti.EntryEquiv:
		p, err := DecodePseudo(d.reg, rec.Equiv)
		if err != nil {
			return rtti.LayoutEntry{}, err
		}
		return rtti.EquivEntry(&rtti.EquivVector{Type: p}), nil
	case rtti.EntryNoTag:
		nv, err := d.noTag(rec.NoTag)
		if err != nil {
			return rtti.LayoutEntry{}, err
		}
		return rtti.NoTagEntry(nv), nil
	default:
		return rtti.LayoutEntry{}, fmt.Errorf("unknown entry kind %d", rec.Kind)
	}
}

func (d *decoder) simple(fr *FunctorRecord) (*rtti.SimpleVector, error) {
	sv := &rtti.SimpleVector{Name: fr.Name, Ordinal: fr.Ordinal}
	if len(fr.Args) > 0 {
		sv.Args = make([]rtti.Pseudo, len(fr.Args))
	}
	for i, words := range fr.Args {
		p, err := DecodePseudo(d.reg, words)
		if err != nil {
			return nil, fmt.Errorf("functor %s argument %d: %w", fr.Name, i+1, err)
		}
		sv.Args[i] = p
	}
	return sv, nil
}

func (d *decoder) noTag(fr *FunctorRecord) (*rtti.NoTagVector, error) {
	if fr == nil || len(fr.Args) != 1 {
		return nil, fmt.Errorf("no-tag functor must have exactly one argument")
	}
	sv, err := d.simple(fr)
	if err != nil {
		return nil, err
	}
	return &rtti.NoTagVector{Name: sv.Name, Arg: sv.Args[0]}, nil
}

func decodeEnum(rec *EnumRecord) (*rtti.EnumVector, error) {
	if rec == nil {
		return nil, fmt.Errorf("constant entry without names")
	}
	if len(rec.Names) != len(rec.Ordinals) {
		return nil, fmt.Errorf("constant entry has %d names and %d ordinals", len(rec.Names), len(rec.Ordinals))
	}
	v := &rtti.EnumVector{IsEnum: rec.IsEnum, Functors: make([]rtti.ConstFunctor, len(rec.Names))}
	for i, name := range rec.Names {
		v.Functors[i] = rtti.ConstFunctor{Name: name, Ordinal: rec.Ordinals[i]}
	}
	return v, nil
}
