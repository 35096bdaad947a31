package rtti

import (
	"fmt"
	"strings"

	"rtti/internal/rtabi"
)

// Result is a three-way comparison outcome with the runtime's ABI codes.
type Result uint8

const (
	Equal   Result = rtabi.CompareEqual
	Less    Result = rtabi.CompareLess
	Greater Result = rtabi.CompareGreater
)

func (r Result) String() string {
	switch r {
	case Equal:
		return "="
	case Less:
		return "<"
	case Greater:
		return ">"
	default:
		return fmt.Sprintf("Result(%d)", r)
	}
}

// Invert swaps Less and Greater.
func (r Result) Invert() Result {
	switch r {
	case Less:
		return Greater
	case Greater:
		return Less
	default:
		return r
	}
}

// Compare orders two concrete descriptors. Both sides are collapsed first;
// different constructors order by (module, name, arity), never by address,
// so the order is the same on every run.
func (r *Registry) Compare(x, y *TypeInfo) Result {
	a := acquireArena()
	defer releaseArena(a)
	return r.compare(x, y, a)
}

func (r *Registry) compare(x, y *TypeInfo, a *Arena) Result {
	x = r.Collapse(x, a)
	y = r.Collapse(y, a)
	if x == y {
		return Equal
	}
	cx, cy := r.ctorOf(x), r.ctorOf(y)
	if x.ctor != y.ctor {
		return r.compareCtors(cx, len(x.args), cy, len(y.args))
	}
	if cx.HigherOrder {
		if res := CompareOrdinals(len(x.args), len(y.args)); res != Equal {
			return res
		}
	} else if len(x.args) != cx.Arity || len(y.args) != cx.Arity {
		panic(corrupt(ErrArityMismatch, cx, "descriptors have %d and %d arguments", len(x.args), len(y.args)))
	}
	for i := range x.args {
		if res := r.compare(x.args[i], y.args[i], a); res != Equal {
			return res
		}
	}
	return Equal
}

func (r *Registry) compareCtors(cx *Constructor, nx int, cy *Constructor, ny int) Result {
	if cx.HigherOrder && cy.HigherOrder {
		// predicates before functions, then by arity
		if res := CompareOrdinals(hoKind(cx), hoKind(cy)); res != Equal {
			return res
		}
		return CompareOrdinals(nx, ny)
	}
	if res := compareStrings(cx.sortModule, cy.sortModule); res != Equal {
		return res
	}
	if res := compareStrings(sortName(cx), sortName(cy)); res != Equal {
		return res
	}
	if cx.HigherOrder != cy.HigherOrder {
		if cx.HigherOrder {
			return Greater
		}
		return Less
	}
	return CompareOrdinals(cx.Arity, cy.Arity)
}

// sortName places pred and func next to each other so that the special
// rule above stays transitive with the name order.
func sortName(c *Constructor) string {
	if c.HigherOrder {
		return "pred"
	}
	return c.sortName
}

func hoKind(c *Constructor) int {
	if c.Name == "func" {
		return 1
	}
	return 0
}

func compareStrings(a, b string) Result {
	switch strings.Compare(a, b) {
	case -1:
		return Less
	case 1:
		return Greater
	default:
		return Equal
	}
}

// CompareOrdinals orders two integers.
func CompareOrdinals(a, b int) Result {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// CompareFunctors orders two values of one type by the declaration order of
// their functors. Functors sharing a primary tag are ordered the same way.
func CompareFunctors(x, y FunctorRef) Result {
	return CompareOrdinals(x.Ordinal, y.Ordinal)
}

// CompareUnivTypes orders existential containers by their type descriptors.
func (r *Registry) CompareUnivTypes(x, y Univ) Result {
	return r.Compare(x.Type(), y.Type())
}

// Equal reports whether two descriptors denote the same type.
func (r *Registry) Equal(x, y *TypeInfo) bool {
	return r.Compare(x, y) == Equal
}
