package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rtti/internal/image"
	"rtti/internal/rtabi"
	"rtti/internal/rtti"
)

func newABICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abi <type>",
		Short: "Show the packed words of a type descriptor and its constructor's layout",
		Args:  cobra.ExactArgs(1),
		RunE:  run(abiExecution),
	}
}

func abiExecution(s *session, args []string) error {
	reg, err := s.registry()
	if err != nil {
		return err
	}
	t, err := s.parseType(reg, args[0])
	if err != nil {
		return err
	}
	words, err := image.EncodePseudo(reg, t)
	if err != nil {
		return err
	}
	s.printf("descriptor: %s\n", formatWords(words))

	c := reg.MustLookup(t.Ctor())
	off := rtabi.Offsets(c.TermToType != 0 || c.TypeToTerm != 0)
	s.printf("constructor: %d words, layout at +%d, functors at +%d, name at +%d\n",
		off.Size, off.Layout, off.Functors, off.TypeName)
	if reg.IsHigherOrder(t.Ctor()) {
		s.printf("arity word at +%d, arguments from +%d\n", rtabi.OffsetHOArity, rtabi.OffsetHOArgs)
	} else if t.Arity() > 0 {
		s.printf("arguments from +%d\n", rtabi.OffsetArgTypeInfos)
	}

	bits := reg.TagBits()
	for tag, e := range c.Layout {
		packed, err := image.PackEntry(bits, e)
		if err != nil {
			return fmt.Errorf("tag %d: %w", tag, err)
		}
		s.printf("tag %d: %-22s %s\n", tag, formatWords(packed), vectorShape(e))
	}
	return nil
}

func formatWords(words []rtabi.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%#x", uint64(w))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// vectorShape names where the functor data of a layout entry lives.
func vectorShape(e rtti.LayoutEntry) string {
	switch e.Kind {
	case rtti.EntryConst:
		off := rtabi.LayoutConstFunctorOffset
		if e.Enum.IsEnum {
			off = rtabi.LayoutEnumFunctorOffset
		}
		return fmt.Sprintf("names from +%d", off)
	case rtti.EntrySimple:
		return fmt.Sprintf("arity at +%d, args from +%d, name at +%d",
			rtabi.LayoutSimpleArityOffset, rtabi.LayoutSimpleArgsOffset, rtabi.LayoutSimpleArgsOffset+e.Simple.Arity())
	case rtti.EntryComplicated:
		return fmt.Sprintf("%d sharers by secondary tag", e.Complicated.NumSharers())
	default:
		return ""
	}
}
