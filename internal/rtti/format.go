package rtti

import (
	"strconv"
	"strings"
)

const builtinModule = "builtin"

// Label returns a readable rendering of a concrete descriptor, e.g.
// list.list(int), pred(int, string) or func(int) = string.
func (r *Registry) Label(t *TypeInfo) string {
	var b strings.Builder
	r.writeLabel(&b, t, 0)
	return b.String()
}

// LabelPseudo renders a template; placeholders print as $k.
func (r *Registry) LabelPseudo(p Pseudo) string {
	var b strings.Builder
	r.writePseudo(&b, p, 0)
	return b.String()
}

// QualifiedName returns module.name, or the bare name for builtins.
func (c *Constructor) QualifiedName() string {
	if c.Module == "" || c.Module == builtinModule {
		return c.Name
	}
	return c.Module + "." + c.Name
}

const maxLabelDepth = 24

func (r *Registry) writeLabel(b *strings.Builder, t *TypeInfo, depth int) {
	if t == nil {
		b.WriteString("?")
		return
	}
	if t.Released() {
		b.WriteString("<released>")
		return
	}
	args := make([]Pseudo, len(t.args))
	for i, a := range t.args {
		args[i] = a
	}
	r.writeApp(b, t.ctor, args, depth)
}

func (r *Registry) writePseudo(b *strings.Builder, p Pseudo, depth int) {
	switch t := p.(type) {
	case Var:
		b.WriteString("$")
		b.WriteString(strconv.Itoa(int(t)))
	case *TypeInfo:
		r.writeLabel(b, t, depth)
	case *Template:
		if t == nil {
			b.WriteString("?")
			return
		}
		r.writeApp(b, t.Ctor, t.Args, depth)
	default:
		b.WriteString("?")
	}
}

func (r *Registry) writeApp(b *strings.Builder, id CtorID, args []Pseudo, depth int) {
	if depth > maxLabelDepth {
		b.WriteString("...")
		return
	}
	c, ok := r.Lookup(id)
	if !ok {
		b.WriteString("?")
		return
	}
	writeArgs := func(list []Pseudo) {
		b.WriteByte('(')
		for i, a := range list {
			if i > 0 {
				b.WriteString(", ")
			}
			r.writePseudo(b, a, depth+1)
		}
		b.WriteByte(')')
	}
	if c.HigherOrder && c.Name == "func" && len(args) > 0 {
		b.WriteString("func")
		writeArgs(args[:len(args)-1])
		b.WriteString(" = ")
		r.writePseudo(b, args[len(args)-1], depth+1)
		return
	}
	b.WriteString(c.QualifiedName())
	if len(args) > 0 {
		writeArgs(args)
	}
}
