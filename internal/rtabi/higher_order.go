package rtabi

import (
	"fmt"

	"fortio.org/safecast"
)

// HOCode packs the kind and arity of a higher-order type: even codes are
// predicates, odd codes are functions, and code/2 is the arity.
type HOCode Word

// HOModuleName is the module every higher-order constructor belongs to.
const HOModuleName = "builtin"

// MaxHOArity is the largest arity whose code still fits below MaxVarInt.
const MaxHOArity = int((MaxVarInt - 1) / 2)

// MakePred encodes a predicate of the given arity.
func MakePred(arity int) (HOCode, error) {
	return makeHO(arity, 0)
}

// MakeFunc encodes a function of the given arity (the result counts).
func MakeFunc(arity int) (HOCode, error) {
	return makeHO(arity, 1)
}

func makeHO(arity int, bit Word) (HOCode, error) {
	if arity < 0 || arity > MaxHOArity {
		return 0, fmt.Errorf("higher-order arity %d outside [0, %d]", arity, MaxHOArity)
	}
	a, err := safecast.Conv[Word](arity)
	if err != nil {
		return 0, err
	}
	return HOCode(a*2 + bit), nil
}

// Arity returns the number of arguments.
func (c HOCode) Arity() int {
	return int(c / 2)
}

// IsFunc reports whether the code describes a function.
func (c HOCode) IsFunc() bool {
	return c%2 == 1
}

// Name returns "func" or "pred".
func (c HOCode) Name() string {
	if c.IsFunc() {
		return "func"
	}
	return "pred"
}

// Valid reports whether the code sits in the higher-order range.
func (c HOCode) Valid() bool {
	return Word(c) <= MaxVarInt
}
