package rtti

// Pseudo is a possibly parameterized type descriptor: a Var placeholder, a
// ground *TypeInfo, or a *Template with placeholder-bearing arguments.
type Pseudo interface {
	pseudo()
}

// Var refers to argument k (1-based) of the binding context.
type Var int

func (Var) pseudo() {}

// Template applies a constructor to argument templates.
type Template struct {
	Ctor CtorID
	Args []Pseudo
}

func (*Template) pseudo() {}

// IsVariable reports whether p is a placeholder.
func IsVariable(p Pseudo) bool {
	_, ok := p.(Var)
	return ok
}

// IsGround reports whether p contains no placeholders.
func IsGround(p Pseudo) bool {
	switch t := p.(type) {
	case *TypeInfo:
		return t != nil
	case *Template:
		if t == nil {
			return false
		}
		for _, a := range t.Args {
			if !IsGround(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypeInfo is a concrete type descriptor. Zero-arity descriptors are the
// registry's canonical instance for their constructor.
type TypeInfo struct {
	ctor  CtorID
	args  []*TypeInfo
	owner *Arena
}

func (*TypeInfo) pseudo() {}

// Ctor returns the constructor handle.
func (t *TypeInfo) Ctor() CtorID {
	if t == nil {
		return NoCtorID
	}
	return t.ctor
}

// Arity returns the number of argument descriptors.
func (t *TypeInfo) Arity() int {
	if t == nil {
		return 0
	}
	return len(t.args)
}

// Arg returns argument i (0-based).
func (t *TypeInfo) Arg(i int) *TypeInfo {
	if t == nil || i < 0 || i >= len(t.args) {
		return nil
	}
	return t.args[i]
}

// Args returns a copy of the argument descriptors.
func (t *TypeInfo) Args() []*TypeInfo {
	if t == nil || len(t.args) == 0 {
		return nil
	}
	out := make([]*TypeInfo, len(t.args))
	copy(out, t.args)
	return out
}

// Released reports whether the descriptor belonged to a released arena.
func (t *TypeInfo) Released() bool {
	return t != nil && t.ctor == NoCtorID
}
