package rtti

import (
	"fmt"

	"rtti/internal/rtabi"
)

// CtorID is the stable handle of a type constructor inside a Registry.
type CtorID uint32

// NoCtorID marks the absence of a constructor.
const NoCtorID CtorID = 0

// CodeAddr addresses compiled code for a special operation. Zero is unbound.
type CodeAddr uint64

// Constructor describes one declared type constructor.
type Constructor struct {
	Arity int

	Unify      CodeAddr
	Index      CodeAddr
	Compare    CodeAddr
	TermToType CodeAddr
	TypeToTerm CodeAddr

	Layout   LayoutTable
	Functors *FunctorTable

	Module string
	Name   string

	// HigherOrder marks the shared pred/func constructors; their concrete
	// descriptors carry the arity.
	HigherOrder bool

	sortModule string
	sortName   string
}

// Indicator is the kind of a functor table.
type Indicator uint8

const (
	IndicatorDU Indicator = iota
	IndicatorEnum
	IndicatorEquiv
	IndicatorSpecial
	IndicatorNoTag
	IndicatorUniv
)

func (i Indicator) String() string {
	switch i {
	case IndicatorDU:
		return "du"
	case IndicatorEnum:
		return "enum"
	case IndicatorEquiv:
		return "equiv"
	case IndicatorSpecial:
		return "special"
	case IndicatorNoTag:
		return "no_tag"
	case IndicatorUniv:
		return "univ"
	default:
		return fmt.Sprintf("Indicator(%d)", i)
	}
}

// FunctorTable lists the functors of a type. Only the payload matching
// Indicator is set.
type FunctorTable struct {
	Indicator Indicator

	DU      []*SimpleVector // declaration order
	Enum    *EnumVector
	Equiv   Pseudo
	NoTag   *NoTagVector
	Special rtabi.LayoutValue
}

// NumFunctors returns how many functors the type has.
func (f *FunctorTable) NumFunctors() int {
	if f == nil {
		return 0
	}
	switch f.Indicator {
	case IndicatorDU:
		return len(f.DU)
	case IndicatorEnum:
		if f.Enum == nil {
			return 0
		}
		return len(f.Enum.Functors)
	case IndicatorNoTag:
		if f.NoTag == nil {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// Functor returns functor n (0-based, declaration order).
func (f *FunctorTable) Functor(n int) (FunctorRef, bool) {
	if f == nil || n < 0 || n >= f.NumFunctors() {
		return FunctorRef{}, false
	}
	switch f.Indicator {
	case IndicatorDU:
		return f.DU[n].Ref(), true
	case IndicatorEnum:
		return f.Enum.Functors[n].Ref(), true
	case IndicatorNoTag:
		return f.NoTag.Ref(), true
	}
	return FunctorRef{}, false
}

// FunctorRef is a read-only view of one functor.
type FunctorRef struct {
	Name    string
	Ordinal int
	Args    []Pseudo
}

// Arity returns the number of functor arguments.
func (r FunctorRef) Arity() int {
	return len(r.Args)
}
