package rtti

import (
	"fmt"

	"rtti/internal/rtabi"
)

// DataRep is the representation of one value of a type, known once the
// value's primary tag is known. Similar cases are adjacent.
type DataRep uint8

const (
	RepEnum DataRep = iota
	RepComplicatedConst
	RepComplicated
	RepSimple
	RepNoTag
	RepEquiv
	RepEquivVar
	RepInt
	RepChar
	RepFloat
	RepString
	RepPred
	RepUniv
	RepVoid
	RepArray
	RepTypeInfo
	RepCPointer
	RepUnknown
	RepTypeClassInfo
)

var dataRepNames = [...]string{
	RepEnum:             "ENUM",
	RepComplicatedConst: "COMPLICATED_CONST",
	RepComplicated:      "COMPLICATED",
	RepSimple:           "SIMPLE",
	RepNoTag:            "NOTAG",
	RepEquiv:            "EQUIV",
	RepEquivVar:         "EQUIV_VAR",
	RepInt:              "INT",
	RepChar:             "CHAR",
	RepFloat:            "FLOAT",
	RepString:           "STRING",
	RepPred:             "PRED",
	RepUniv:             "UNIV",
	RepVoid:             "VOID",
	RepArray:            "ARRAY",
	RepTypeInfo:         "TYPEINFO",
	RepCPointer:         "C_POINTER",
	RepUnknown:          "UNKNOWN",
	RepTypeClassInfo:    "TYPECLASSINFO",
}

func (d DataRep) String() string {
	if int(d) < len(dataRepNames) {
		return dataRepNames[d]
	}
	return fmt.Sprintf("DataRep(%d)", d)
}

// Known reports whether d is anything but RepUnknown.
func (d DataRep) Known() bool {
	return d != RepUnknown && int(d) < len(dataRepNames)
}

// Categorize maps a functor table kind and the layout entry selected by a
// value's primary tag to a representation. RepUnknown means the value is
// opaque to generic code; it is a regular answer, not an error.
func Categorize(ind Indicator, e LayoutEntry) DataRep {
	switch ind {
	case IndicatorDU:
		switch e.Kind {
		case EntryComplicated:
			if e.Complicated.NumSharers() == 0 {
				return RepUnknown
			}
			if e.Complicated.allConst() {
				return RepComplicatedConst
			}
			return RepComplicated
		case EntrySimple:
			return RepSimple
		case EntryConst:
			return RepComplicatedConst
		}
	case IndicatorEnum:
		return RepEnum
	case IndicatorNoTag:
		return RepNoTag
	case IndicatorEquiv:
		if e.Kind != EntryEquiv || e.Equiv == nil || e.Equiv.Type == nil {
			return RepUnknown
		}
		if IsVariable(e.Equiv.Type) {
			return RepEquivVar
		}
		return RepEquiv
	case IndicatorSpecial:
		if e.Kind == EntrySpecial {
			return specialRep(e.Value)
		}
	case IndicatorUniv:
		return RepUniv
	}
	return RepUnknown
}

func specialRep(v rtabi.LayoutValue) DataRep {
	switch v {
	case rtabi.LayoutInt:
		return RepInt
	case rtabi.LayoutCharacter:
		return RepChar
	case rtabi.LayoutFloat:
		return RepFloat
	case rtabi.LayoutString:
		return RepString
	case rtabi.LayoutPredicate:
		return RepPred
	case rtabi.LayoutUniv:
		return RepUniv
	case rtabi.LayoutVoid:
		return RepVoid
	case rtabi.LayoutArray:
		return RepArray
	case rtabi.LayoutTypeInfo:
		return RepTypeInfo
	case rtabi.LayoutCPointer:
		return RepCPointer
	case rtabi.LayoutTypeClassInfo:
		return RepTypeClassInfo
	default:
		return RepUnknown
	}
}

// CategorizeTag classifies values of constructor id carrying primary tag.
func (r *Registry) CategorizeTag(id CtorID, tag int) DataRep {
	c, ok := r.Lookup(id)
	if !ok || c.Functors == nil {
		return RepUnknown
	}
	e, ok := c.Layout.Entry(tag)
	if !ok {
		return RepUnknown
	}
	return Categorize(c.Functors.Indicator, e)
}

// MustCategorize is CategorizeTag for callers that cannot proceed without a
// definite representation. It panics with a CorruptError on RepUnknown.
func (r *Registry) MustCategorize(id CtorID, tag int) DataRep {
	rep := r.CategorizeTag(id, tag)
	if rep == RepUnknown {
		c, _ := r.Lookup(id)
		panic(corrupt(ErrNoRepresentation, c, "primary tag %d", tag))
	}
	return rep
}

// TypeCtorRep is the representation of a whole type constructor. For
// discriminated unions the per-value answer needs the primary tag.
type TypeCtorRep uint8

const (
	CtorRepEnum TypeCtorRep = iota
	CtorRepDU
	CtorRepNoTag
	CtorRepEquiv
	CtorRepEquivVar
	CtorRepInt
	CtorRepChar
	CtorRepFloat
	CtorRepString
	CtorRepPred
	CtorRepUniv
	CtorRepVoid
	CtorRepCPointer
	CtorRepTypeInfo
	CtorRepTypeClassInfo
	CtorRepArray
	CtorRepUnknown
)

var ctorRepNames = [...]string{
	CtorRepEnum:          "ENUM",
	CtorRepDU:            "DU",
	CtorRepNoTag:         "NOTAG",
	CtorRepEquiv:         "EQUIV",
	CtorRepEquivVar:      "EQUIV_VAR",
	CtorRepInt:           "INT",
	CtorRepChar:          "CHAR",
	CtorRepFloat:         "FLOAT",
	CtorRepString:        "STRING",
	CtorRepPred:          "PRED",
	CtorRepUniv:          "UNIV",
	CtorRepVoid:          "VOID",
	CtorRepCPointer:      "C_POINTER",
	CtorRepTypeInfo:      "TYPEINFO",
	CtorRepTypeClassInfo: "TYPECLASSINFO",
	CtorRepArray:         "ARRAY",
	CtorRepUnknown:       "UNKNOWN",
}

func (t TypeCtorRep) String() string {
	if int(t) < len(ctorRepNames) {
		return ctorRepNames[t]
	}
	return fmt.Sprintf("TypeCtorRep(%d)", t)
}

// CtorRep summarizes constructor id.
func (r *Registry) CtorRep(id CtorID) TypeCtorRep {
	c, ok := r.Lookup(id)
	if !ok || c.Functors == nil {
		return CtorRepUnknown
	}
	f := c.Functors
	switch f.Indicator {
	case IndicatorEnum:
		return CtorRepEnum
	case IndicatorDU:
		return CtorRepDU
	case IndicatorNoTag:
		return CtorRepNoTag
	case IndicatorEquiv:
		if IsVariable(f.Equiv) {
			return CtorRepEquivVar
		}
		return CtorRepEquiv
	case IndicatorUniv:
		return CtorRepUniv
	case IndicatorSpecial:
		switch specialRep(f.Special) {
		case RepInt:
			return CtorRepInt
		case RepChar:
			return CtorRepChar
		case RepFloat:
			return CtorRepFloat
		case RepString:
			return CtorRepString
		case RepPred:
			return CtorRepPred
		case RepUniv:
			return CtorRepUniv
		case RepVoid:
			return CtorRepVoid
		case RepCPointer:
			return CtorRepCPointer
		case RepTypeInfo:
			return CtorRepTypeInfo
		case RepTypeClassInfo:
			return CtorRepTypeClassInfo
		case RepArray:
			return CtorRepArray
		}
	}
	return CtorRepUnknown
}
