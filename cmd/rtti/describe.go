package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rtti/internal/rtti"
)

var (
	headColor  = color.New(color.Bold)
	labelColor = color.New(color.FgCyan)
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <type>",
		Short: "Show a type, its canonical form, constructor and tag layout",
		Args:  cobra.ExactArgs(1),
		RunE:  run(describeExecution),
	}
}

func describeExecution(s *session, args []string) error {
	reg, err := s.registry()
	if err != nil {
		return err
	}
	t, err := s.parseType(reg, args[0])
	if err != nil {
		return err
	}
	canon := reg.Collapse(t, nil)
	c := reg.MustLookup(canon.Ctor())

	s.printf("%s %s\n", headColor.Sprint("type:     "), labelColor.Sprint(reg.Label(t)))
	if canon != t {
		s.printf("%s %s\n", headColor.Sprint("canonical:"), labelColor.Sprint(reg.Label(canon)))
	}
	s.printf("%s %s/%d (%v)\n", headColor.Sprint("ctor:     "), c.QualifiedName(), c.Arity, reg.CtorRep(canon.Ctor()))
	if code, ok := reg.HOCode(canon); ok {
		s.printf("%s %s/%d code %d\n", headColor.Sprint("closure:  "), code.Name(), code.Arity(), code)
	}
	writeFunctors(s, reg, c)
	writeLayout(s, reg, canon.Ctor(), c)
	return nil
}

func writeFunctors(s *session, reg *rtti.Registry, c *rtti.Constructor) {
	n := c.Functors.NumFunctors()
	if n == 0 {
		return
	}
	s.printf("%s\n", headColor.Sprint("functors:"))
	for i := 0; i < n; i++ {
		f, _ := c.Functors.Functor(i)
		s.printf("  %d %s\n", f.Ordinal, functorSignature(reg, f))
	}
}

func functorSignature(reg *rtti.Registry, f rtti.FunctorRef) string {
	if f.Arity() == 0 {
		return f.Name
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = reg.LabelPseudo(a)
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

func writeLayout(s *session, reg *rtti.Registry, id rtti.CtorID, c *rtti.Constructor) {
	s.printf("%s\n", headColor.Sprint("layout:"))
	for tag, e := range c.Layout {
		rep := reg.CategorizeTag(id, tag)
		s.printf("  tag %d  %-12s %-20s%s\n", tag, e.Kind, rep, entryDetail(reg, e))
	}
}

func entryDetail(reg *rtti.Registry, e rtti.LayoutEntry) string {
	switch e.Kind {
	case rtti.EntryConst:
		names := make([]string, len(e.Enum.Functors))
		for i, f := range e.Enum.Functors {
			names[i] = f.Name
		}
		return " " + strings.Join(names, " | ")
	case rtti.EntrySimple:
		return " " + functorSignature(reg, e.Simple.Ref())
	case rtti.EntryComplicated:
		parts := make([]string, 0, e.Complicated.NumSharers())
		for i, sv := range e.Complicated.Sharers {
			parts = append(parts, fmt.Sprintf("%d:%s", i, functorSignature(reg, sv.Ref())))
		}
		return " " + strings.Join(parts, " ")
	case rtti.EntryNoTag:
		return " " + functorSignature(reg, e.NoTag.Ref())
	case rtti.EntryEquiv:
		return " = " + reg.LabelPseudo(e.Equiv.Type)
	case rtti.EntrySpecial:
		return " " + e.Value.String()
	default:
		return ""
	}
}
