package rtti

// Reify builds the concrete descriptor denoted by tmpl when its placeholders
// are bound to the arguments of ctx. Placeholders resolve to the context's
// own argument descriptors, not copies; ground templates are returned as is.
// New cells are recorded in a, which may be nil for GC-owned results.
//
// Reify never fails on well-formed tables. A placeholder beyond the arity of
// ctx means the metadata is corrupt and panics with a *CorruptError.
func (r *Registry) Reify(ctx *TypeInfo, tmpl Pseudo, a *Arena) *TypeInfo {
	switch t := tmpl.(type) {
	case Var:
		return r.bindVar(ctx, t)
	case *TypeInfo:
		if t == nil {
			panic(corrupt(ErrBadTemplate, r.ctorOrNil(ctx), "nil descriptor in template"))
		}
		if t.Released() {
			panic(corrupt(ErrReleased, nil, "template refers to a released descriptor"))
		}
		return t
	case *Template:
		if t == nil {
			panic(corrupt(ErrBadTemplate, r.ctorOrNil(ctx), "nil template"))
		}
		c := r.MustLookup(t.Ctor)
		if !c.HigherOrder && len(t.Args) != c.Arity {
			panic(corrupt(ErrArityMismatch, c, "template has %d arguments, constructor has %d", len(t.Args), c.Arity))
		}
		if len(t.Args) == 0 {
			return r.grounds[t.Ctor]
		}
		out := a.alloc(t.Ctor, len(t.Args))
		for i, arg := range t.Args {
			out.args[i] = r.Reify(ctx, arg, a)
		}
		return out
	default:
		panic(corrupt(ErrBadTemplate, r.ctorOrNil(ctx), "unexpected template %T", tmpl))
	}
}

func (r *Registry) bindVar(ctx *TypeInfo, v Var) *TypeInfo {
	if ctx == nil {
		panic(corrupt(ErrVarOutOfRange, nil, "type variable %d with no binding context", v))
	}
	if ctx.Released() {
		panic(corrupt(ErrReleased, nil, "binding context was released"))
	}
	k := int(v)
	if k < 1 || k > len(ctx.args) {
		panic(corrupt(ErrVarOutOfRange, r.ctorOrNil(ctx), "type variable %d, context has %d arguments", k, len(ctx.args)))
	}
	return ctx.args[k-1]
}

// ctorOrNil is used for diagnostics only.
func (r *Registry) ctorOrNil(t *TypeInfo) *Constructor {
	if t == nil {
		return nil
	}
	c, _ := r.Lookup(t.ctor)
	return c
}

// ctorOf returns the constructor of a live descriptor.
func (r *Registry) ctorOf(t *TypeInfo) *Constructor {
	if t == nil {
		panic(corrupt(ErrBadTemplate, nil, "nil descriptor"))
	}
	if t.Released() {
		panic(corrupt(ErrReleased, nil, "descriptor used after its arena was released"))
	}
	return r.MustLookup(t.ctor)
}
