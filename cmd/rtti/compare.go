package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rtti/internal/decl"
	"rtti/internal/rtti"
)

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Order two types with the runtime comparator",
		Args:  cobra.ExactArgs(2),
		RunE:  run(compareExecution),
	}
}

func compareExecution(s *session, args []string) error {
	reg, err := s.registry()
	if err != nil {
		return err
	}
	a, err := s.parseType(reg, args[0])
	if err != nil {
		return err
	}
	b, err := s.parseType(reg, args[1])
	if err != nil {
		return err
	}
	idx := s.timer.Begin("compare")
	res := reg.Compare(a, b)
	s.timer.End(idx, "")

	op := color.New(color.FgYellow, color.Bold).Sprint(res.String())
	s.printf("%s %s %s\n", reg.Label(a), op, reg.Label(b))
	return nil
}

func newReifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reify <context> <template>",
		Short: "Instantiate a template whose $k placeholders refer to the context's arguments",
		Example: `  rtti --decl types.toml reify 'list(int)' 'list(list($1))'
  rtti --decl types.toml reify --collapse 'app.same(string)' '$1'`,
		Args: cobra.ExactArgs(2),
		RunE: run(reifyExecution),
	}
	cmd.Flags().Bool("collapse", false, "collapse equivalences in the result")
	return cmd
}

func reifyExecution(s *session, args []string) error {
	collapse, err := s.cmd.Flags().GetBool("collapse")
	if err != nil {
		return err
	}
	reg, err := s.registry()
	if err != nil {
		return err
	}
	ctx, err := s.parseType(reg, args[0])
	if err != nil {
		return err
	}
	tmpl, err := decl.ParseTemplate(reg, args[1], decl.Scope{})
	if err != nil {
		return err
	}

	idx := s.timer.Begin("reify")
	defer s.timer.End(idx, "")
	return rtti.Scoped(func(a *rtti.Arena) error {
		t := reg.Reify(ctx, tmpl, a)
		if collapse {
			t = reg.Collapse(t, a)
		}
		s.printf("%s\n", reg.Label(t))
		s.notef("%d descriptor cell(s) allocated\n", a.Len())
		return nil
	})
}
