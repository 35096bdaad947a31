package rtti

// MaxEquivChain bounds alias collapsing. Well-formed programs never come
// close; a longer chain is a cycle in the tables.
const MaxEquivChain = 1024

// Collapse follows equivalence types until it reaches a descriptor whose
// constructor is not an alias. Each step reifies the alias target with the
// current descriptor as binding context. Cells go to a (nil for GC-owned).
func (r *Registry) Collapse(t *TypeInfo, a *Arena) *TypeInfo {
	for steps := 0; ; steps++ {
		c := r.ctorOf(t)
		if c.Functors == nil || c.Functors.Indicator != IndicatorEquiv {
			return t
		}
		if steps == MaxEquivChain {
			panic(corrupt(ErrEquivChainTooLong, c, "more than %d steps", MaxEquivChain))
		}
		t = r.Reify(t, c.Functors.Equiv, a)
	}
}
