package verify

import (
	"errors"
	"fmt"

	"rtti/internal/rtti"
)

type checker struct {
	reg  *rtti.Registry
	name string
	sink ProgressSink
	pool []Sample

	checks   int
	failures []Failure
}

func (c *checker) check(stage Stage, name string, fn func() error) {
	c.checks++
	if err := guard(fn); err != nil {
		c.failures = append(c.failures, Failure{Ctor: c.name, Stage: stage, Check: name, Err: err})
	}
}

func (c *checker) stage(s Stage) {
	emit(c.sink, Event{Ctor: c.name, Stage: s, Status: StatusWorking})
}

func (c *checker) run(id rtti.CtorID) {
	var own []*rtti.TypeInfo
	for _, s := range c.pool {
		if s.Owner == id {
			own = append(own, s.Type)
		}
	}

	c.stage(StageOrder)
	for _, x := range own {
		label := c.reg.Label(x)
		c.check(StageOrder, "reflexive "+label, func() error { return c.reflexive(x) })
		c.check(StageOrder, "antisymmetric "+label, func() error { return c.antisymmetric(x) })
		c.check(StageOrder, "transitive "+label, func() error { return c.transitive(x) })
	}

	c.stage(StageCollapse)
	for _, x := range own {
		c.check(StageCollapse, "idempotent "+c.reg.Label(x), func() error { return c.idempotent(x) })
	}

	c.stage(StageReify)
	for _, x := range own {
		label := c.reg.Label(x)
		c.check(StageReify, "bind "+label, func() error { return c.bindsArgs(x) })
		c.check(StageReify, "deterministic "+label, func() error { return c.deterministic(x) })
	}

	c.stage(StageClassify)
	c.check(StageClassify, "total", func() error { return c.total(id) })
}

func (c *checker) reflexive(x *rtti.TypeInfo) error {
	if res := c.reg.Compare(x, x); res != rtti.Equal {
		return fmt.Errorf("compare with itself gave %v", res)
	}
	return nil
}

func (c *checker) antisymmetric(x *rtti.TypeInfo) error {
	for _, s := range c.pool {
		xy, yx := c.reg.Compare(x, s.Type), c.reg.Compare(s.Type, x)
		if xy != yx.Invert() {
			return fmt.Errorf("%s %v %s but %s %v %s", c.reg.Label(x), xy, c.reg.Label(s.Type), c.reg.Label(s.Type), yx, c.reg.Label(x))
		}
	}
	return nil
}

func (c *checker) transitive(x *rtti.TypeInfo) error {
	n := len(c.pool)
	xs := make([]rtti.Result, n)
	for i, s := range c.pool {
		xs[i] = c.reg.Compare(x, s.Type)
	}
	for i, y := range c.pool {
		if xs[i] == rtti.Greater {
			continue
		}
		for k, z := range c.pool {
			yz := c.reg.Compare(y.Type, z.Type)
			if yz == rtti.Greater {
				continue
			}
			want := rtti.Less
			if xs[i] == rtti.Equal && yz == rtti.Equal {
				want = rtti.Equal
			}
			if xs[k] != want {
				return fmt.Errorf("%s %v %s and %s %v %s, but %s %v %s",
					c.reg.Label(x), xs[i], c.reg.Label(y.Type),
					c.reg.Label(y.Type), yz, c.reg.Label(z.Type),
					c.reg.Label(x), xs[k], c.reg.Label(z.Type))
			}
		}
	}
	return nil
}

func (c *checker) idempotent(x *rtti.TypeInfo) error {
	return rtti.Scoped(func(a *rtti.Arena) error {
		once := c.reg.Collapse(x, a)
		twice := c.reg.Collapse(once, a)
		if twice != once {
			return errors.New("collapsing a collapsed descriptor changed it")
		}
		if res := c.reg.Compare(x, once); res != rtti.Equal {
			return fmt.Errorf("descriptor and its collapse compare %v", res)
		}
		return nil
	})
}

func (c *checker) bindsArgs(x *rtti.TypeInfo) error {
	for k := 1; k <= x.Arity(); k++ {
		if got := c.reg.Reify(x, rtti.Var(k), nil); got != x.Arg(k-1) {
			return fmt.Errorf("$%d bound to %s, want argument %s", k, c.reg.Label(got), c.reg.Label(x.Arg(k-1)))
		}
	}
	return nil
}

// deterministic reifies every argument template of the constructor's
// functors, or its alias target, in two arenas and on the heap.
func (c *checker) deterministic(x *rtti.TypeInfo) error {
	ctor := c.reg.MustLookup(x.Ctor())
	var templates []rtti.Pseudo
	if f := ctor.Functors; f != nil {
		switch f.Indicator {
		case rtti.IndicatorDU:
			for _, sv := range f.DU {
				templates = append(templates, sv.Args...)
			}
		case rtti.IndicatorNoTag:
			templates = append(templates, f.NoTag.Arg)
		case rtti.IndicatorEquiv:
			templates = append(templates, f.Equiv)
		}
	}
	for _, tmpl := range templates {
		heap := c.reg.Reify(x, tmpl, nil)
		err := rtti.Scoped(func(a1 *rtti.Arena) error {
			return rtti.Scoped(func(a2 *rtti.Arena) error {
				r1, r2 := c.reg.Reify(x, tmpl, a1), c.reg.Reify(x, tmpl, a2)
				if c.reg.Compare(r1, r2) != rtti.Equal || c.reg.Compare(r1, heap) != rtti.Equal {
					return fmt.Errorf("reifying %s gave different results", c.reg.LabelPseudo(tmpl))
				}
				return nil
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// total requires a definite representation for every tag except the unused
// slots of a discriminated union. MustCategorize panics otherwise and guard
// turns that into the failure.
func (c *checker) total(id rtti.CtorID) error {
	ctor := c.reg.MustLookup(id)
	du := ctor.Functors != nil && ctor.Functors.Indicator == rtti.IndicatorDU
	for tag := 0; tag < c.reg.NumTags(); tag++ {
		if e, _ := ctor.Layout.Entry(tag); du && e.Kind == rtti.EntryUnused {
			continue
		}
		c.reg.MustCategorize(id, tag)
	}
	return nil
}
