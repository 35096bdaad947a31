// Package rtabi defines the descriptor ABI shared between compiled code and the
// runtime type-information layer. These values must stay bit-compatible with
// the tables emitted by the compiler; the rest of the module works with typed
// descriptors and only crosses into packed words here.
package rtabi

import (
	"fmt"

	"fortio.org/safecast"
)

// Word is one machine word of a packed descriptor.
type Word uint64

// MaxVarInt is the highest type-variable number a packed descriptor may hold.
// Words at or below it are placeholders; anything above is a reference.
const MaxVarInt Word = 1024

// Three-way comparison result codes.
const (
	CompareEqual   = 0
	CompareLess    = 1
	CompareGreater = 2
)

// IsVariable reports whether w is a type-variable placeholder.
func IsVariable(w Word) bool {
	return w <= MaxVarInt
}

// VarWord packs placeholder number k (1-based).
func VarWord(k int) (Word, error) {
	w, err := safecast.Conv[Word](k)
	if err != nil {
		return 0, fmt.Errorf("type variable %d: %w", k, err)
	}
	if w == 0 || w > MaxVarInt {
		return 0, fmt.Errorf("type variable %d outside [1, %d]", k, MaxVarInt)
	}
	return w, nil
}

// VarIndex unpacks a placeholder word.
func VarIndex(w Word) (int, error) {
	if w == 0 || !IsVariable(w) {
		return 0, fmt.Errorf("word %#x is not a type variable", uint64(w))
	}
	return safecast.Conv[int](w)
}

// RefWord encodes a constructor handle so that it can never be mistaken for
// a placeholder.
func RefWord(id uint32) Word {
	return MaxVarInt + 1 + Word(id)
}

// RefID decodes a constructor handle written by RefWord.
func RefID(w Word) (uint32, error) {
	if IsVariable(w) {
		return 0, fmt.Errorf("word %#x is a type variable, not a reference", uint64(w))
	}
	id, err := safecast.Conv[uint32](w - MaxVarInt - 1)
	if err != nil {
		return 0, fmt.Errorf("reference %#x: %w", uint64(w), err)
	}
	return id, nil
}

// CtorOffsets gives word offsets of the fields of a constructor descriptor.
// Disabled fields are -1.
type CtorOffsets struct {
	Count      int
	Unify      int
	Index      int
	Compare    int
	TermToType int
	TypeToTerm int
	Layout     int
	Functors   int
	Reserved   int
	ModuleName int
	TypeName   int
	Size       int
}

// Offsets returns the constructor field layout. The count field must stay at
// offset 0: a zero-arity descriptor is the constructor itself.
func Offsets(termToType bool) CtorOffsets {
	if !termToType {
		return CtorOffsets{
			Count:      0,
			Unify:      1,
			Index:      2,
			Compare:    3,
			TermToType: -1,
			TypeToTerm: -1,
			Layout:     4,
			Functors:   5,
			Reserved:   6,
			ModuleName: 7,
			TypeName:   8,
			Size:       9,
		}
	}
	return CtorOffsets{
		Count:      0,
		Unify:      1,
		Index:      2,
		Compare:    3,
		TermToType: 4,
		TypeToTerm: 5,
		Layout:     6,
		Functors:   7,
		Reserved:   8,
		ModuleName: 9,
		TypeName:   10,
		Size:       11,
	}
}

// Offsets inside a concrete descriptor.
const (
	OffsetArgTypeInfos = 1

	// Higher-order descriptors keep their arity in the descriptor because all
	// closures of one kind share the same constructor.
	OffsetHOArity = 1
	OffsetHOArgs  = 2
)

// Offsets for the two-word existential container.
const (
	UnivOffsetType = 0
	UnivOffsetData = 1
)
