package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rtti/internal/debugger"
)

func newCategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize <type>",
		Short: "Classify the representation of a type's values by primary tag",
		Args:  cobra.ExactArgs(1),
		RunE:  run(categorizeExecution),
	}
	cmd.Flags().String("tag", "", "primary tag to classify (default: every tag)")
	cmd.Flags().String("sub", "", "secondary tag or constant number, to name the functor")
	return cmd
}

func categorizeExecution(s *session, args []string) error {
	tagText, err := s.cmd.Flags().GetString("tag")
	if err != nil {
		return err
	}
	subText, err := s.cmd.Flags().GetString("sub")
	if err != nil {
		return err
	}
	reg, err := s.registry()
	if err != nil {
		return err
	}
	t, err := s.parseType(reg, args[0])
	if err != nil {
		return err
	}
	id := t.Ctor()
	canon := reg.Collapse(t, nil)
	cid := canon.Ctor()

	if tagText == "" {
		if subText != "" {
			return fmt.Errorf("--sub needs --tag")
		}
		for tag := 0; tag < reg.NumTags(); tag++ {
			s.printf("%d %s\n", tag, reg.CategorizeTag(id, tag))
		}
		if cid != id {
			s.printf("= %s\n", reg.Label(canon))
			for tag := 0; tag < reg.NumTags(); tag++ {
				s.printf("  %d %s\n", tag, reg.CategorizeTag(cid, tag))
			}
		}
		return nil
	}

	tag, ok := debugger.ParseIndex(tagText, reg.NumTags())
	if !ok {
		return fmt.Errorf("invalid --tag %q: expected 0..%d", tagText, reg.NumTags()-1)
	}
	s.printf("%s\n", reg.CategorizeTag(id, tag))
	if cid != id {
		s.printf("%s (%s)\n", reg.CategorizeTag(cid, tag), reg.Label(canon))
	}
	if subText == "" {
		return nil
	}
	// Functors live on the collapsed constructor; equivalences have none.
	c := reg.MustLookup(cid)
	sub, ok := debugger.ParseNatural(subText)
	if !ok || c.Functors == nil || sub >= uint64(c.Functors.NumFunctors()) {
		return fmt.Errorf("invalid --sub %q", subText)
	}
	f, ok := c.Layout.Resolve(tag, int(sub))
	if !ok {
		return fmt.Errorf("%s has no functor at tag %d/%d", c.QualifiedName(), tag, sub)
	}
	s.printf("%s\n", functorSignature(reg, f))
	return nil
}
