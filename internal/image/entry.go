package image

import (
	"fmt"

	"fortio.org/safecast"

	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

// PackEntry returns the layout word(s) of e as compiled code sees them: the
// layout tag in the low bits and a small payload in the body. Unused slots
// are const-tagged with rtabi.LayoutUnused.
func PackEntry(bits rtabi.TagBits, e rtti.LayoutEntry) ([]rtabi.Word, error) {
	tag := e.Tag()
	var value int
	switch e.Kind {
	case rtti.EntryUnused:
		tag, value = rtabi.LayoutConstTag, int(rtabi.LayoutUnused)
	case rtti.EntrySpecial:
		value = int(e.Value)
	case rtti.EntryConst:
		value = e.Enum.NumSharers()
	case rtti.EntrySimple:
		value = e.Simple.Ordinal
	case rtti.EntryComplicated:
		value = e.Complicated.NumSharers()
	}
	w, err := safecast.Conv[rtabi.Word](value)
	if err != nil {
		return nil, fmt.Errorf("layout value %d: %w", value, err)
	}
	return bits.PackLayoutEntry(tag, w)
}

// checkPacked verifies that a stored layout word agrees with the entry
// decoded next to it.
func checkPacked(bits rtabi.TagBits, packed []rtabi.Word, e rtti.LayoutEntry) error {
	want, err := PackEntry(bits, e)
	if err != nil {
		return err
	}
	tag, value, n, err := bits.UnpackLayoutEntry(packed)
	if err != nil {
		return err
	}
	wtag, wvalue, _, err := bits.UnpackLayoutEntry(want)
	if err != nil {
		return err
	}
	if n != len(packed) || tag != wtag || value != wvalue {
		return fmt.Errorf("layout word (%d, %d) does not match %s entry", tag, value, e.Kind)
	}
	return nil
}
