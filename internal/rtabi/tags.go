package rtabi

import (
	"fmt"

	"fortio.org/safecast"
)

// TagBits is the number of low pointer bits used as a primary tag.
// It is a build constant of the runtime; layout tables have 1<<TagBits entries.
type TagBits uint8

// MaxTagBits is the widest primary tag supported.
const MaxTagBits TagBits = 3

// Valid reports whether b is a supported tag width.
func (b TagBits) Valid() bool {
	return b <= MaxTagBits
}

// NumTags returns the number of distinct primary tags.
func (b TagBits) NumTags() int {
	return 1 << b
}

// Mask selects the tag bits of a word.
func (b TagBits) Mask() Word {
	return Word(1)<<b - 1
}

// MkTag converts a primary tag to its word form.
func (b TagBits) MkTag(tag int) (Word, error) {
	if tag < 0 || tag >= b.NumTags() {
		return 0, fmt.Errorf("primary tag %d outside [0, %d) for %d tag bits", tag, b.NumTags(), b)
	}
	return safecast.Conv[Word](tag)
}

// MkBody shifts a small value above the tag bits.
func (b TagBits) MkBody(v Word) Word {
	return v << b
}

// UnmkBody recovers a value stored with MkBody.
func (b TagBits) UnmkBody(w Word) Word {
	return w >> b
}

// Tag returns the primary tag of w.
func (b TagBits) Tag(w Word) int {
	return int(w & b.Mask())
}

// StripTag clears the tag bits of w.
func (b TagBits) StripTag(w Word) Word {
	return w &^ b.Mask()
}

// Body returns the value part of a word built with MkWord and MkBody.
func (b TagBits) Body(w Word) Word {
	return b.UnmkBody(b.StripTag(w))
}

// MkWord combines a tag with an already shifted body.
func (b TagBits) MkWord(tag int, body Word) (Word, error) {
	t, err := b.MkTag(tag)
	if err != nil {
		return 0, err
	}
	if body&b.Mask() != 0 {
		return 0, fmt.Errorf("body %#x overlaps tag bits", uint64(body))
	}
	return t | body, nil
}

// PackLayoutEntry encodes a (tag, value) layout word. With fewer than two tag
// bits there is no room for the layout tag, so the entry takes two words.
func (b TagBits) PackLayoutEntry(tag int, value Word) ([]Word, error) {
	if tag < 0 || tag > LayoutEquivTag {
		return nil, fmt.Errorf("layout tag %d out of range", tag)
	}
	if b >= 2 {
		w, err := b.MkWord(tag, b.MkBody(value))
		if err != nil {
			return nil, err
		}
		return []Word{w}, nil
	}
	t, err := safecast.Conv[Word](tag)
	if err != nil {
		return nil, err
	}
	return []Word{t, value}, nil
}

// UnpackLayoutEntry decodes one entry from words and reports how many words
// it used.
func (b TagBits) UnpackLayoutEntry(words []Word) (tag int, value Word, n int, err error) {
	if b >= 2 {
		if len(words) < 1 {
			return 0, 0, 0, fmt.Errorf("layout entry: need 1 word, have 0")
		}
		return b.Tag(words[0]), b.Body(words[0]), 1, nil
	}
	if len(words) < 2 {
		return 0, 0, 0, fmt.Errorf("layout entry: need 2 words, have %d", len(words))
	}
	t, err := safecast.Conv[int](words[0])
	if err != nil {
		return 0, 0, 0, err
	}
	return t, words[1], 2, nil
}

// Layout tags. Some tags are shared: constants and complicated constants,
// equivalences and no-tag wrappers.
const (
	LayoutConstTag       = 0
	LayoutCompConstTag   = 0
	LayoutSimpleTag      = 1
	LayoutComplicatedTag = 2
	LayoutEquivTag       = 3
	LayoutNoTagTag       = 3
)

// LayoutValue is the payload of a const-tagged layout word for builtin types.
type LayoutValue uint8

const (
	LayoutUnassigned LayoutValue = iota
	LayoutUnused
	LayoutString
	LayoutFloat
	LayoutInt
	LayoutCharacter
	LayoutUniv
	LayoutPredicate
	LayoutVoid
	LayoutArray
	LayoutTypeInfo
	LayoutCPointer
	LayoutTypeClassInfo
)

// Offsets of functor data inside layout vectors.
const (
	LayoutConstFunctorOffset = 2
	LayoutEnumFunctorOffset  = 2
	LayoutSimpleArityOffset  = 0
	LayoutSimpleArgsOffset   = 1
)

func (v LayoutValue) String() string {
	switch v {
	case LayoutUnassigned:
		return "unassigned"
	case LayoutUnused:
		return "unused"
	case LayoutString:
		return "string"
	case LayoutFloat:
		return "float"
	case LayoutInt:
		return "int"
	case LayoutCharacter:
		return "character"
	case LayoutUniv:
		return "univ"
	case LayoutPredicate:
		return "pred"
	case LayoutVoid:
		return "void"
	case LayoutArray:
		return "array"
	case LayoutTypeInfo:
		return "typeinfo"
	case LayoutCPointer:
		return "c_pointer"
	case LayoutTypeClassInfo:
		return "typeclassinfo"
	default:
		return fmt.Sprintf("LayoutValue(%d)", v)
	}
}
