// Package verify checks the runtime type operations of a registry against
// their algebraic properties: Compare is a total order, Collapse is
// idempotent, Reify is deterministic and binds placeholders to the context
// arguments, and every primary tag of every constructor categorizes.
package verify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"rtti/internal/rtti"
	"rtti/internal/trace"
)

// Options configures a verification run.
type Options struct {
	// Jobs bounds the number of constructors checked at once; zero means
	// GOMAXPROCS.
	Jobs int
	// Progress receives per-constructor events. It may be nil.
	Progress ProgressSink
}

// Failure is one violated property.
type Failure struct {
	Ctor  string
	Stage Stage
	Check string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s/%s: %v", f.Ctor, f.Stage, f.Check, f.Err)
}

// Report summarizes a run.
type Report struct {
	Ctors    int
	Samples  int
	Checks   int
	Failures []Failure
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return r != nil && len(r.Failures) == 0
}

// Err joins the failures into one error, or returns nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type ctorResult struct {
	checks   int
	failures []Failure
}

// Run verifies every constructor of a frozen registry. Property violations,
// including corrupt-table panics, are collected in the report; the returned
// error is reserved for cancellation and unusable input.
func Run(ctx context.Context, reg *rtti.Registry, opts Options) (*Report, error) {
	if !reg.Frozen() {
		return nil, rtti.ErrNotFrozen
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "verify.run")
	defer span.End("")

	var ids []rtti.CtorID
	var names []string
	reg.Each(func(id rtti.CtorID, c *rtti.Constructor) bool {
		ids = append(ids, id)
		names = append(names, c.QualifiedName())
		return true
	})
	for _, name := range names {
		emit(opts.Progress, Event{Ctor: name, Stage: StageSample, Status: StatusQueued})
	}

	emit(opts.Progress, Event{Stage: StageSample, Status: StatusWorking})
	pool, rejected := collapseSamples(reg, Samples(reg))
	span.WithExtra("ctors", strconv.Itoa(len(ids))).WithExtra("samples", strconv.Itoa(len(pool)))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]ctorResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(ids), 1)))
	for i, id := range ids {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			_, cspan := trace.Start(gctx, trace.ScopeCtor, "verify:"+names[i])
			defer cspan.End("")

			start := time.Now()
			c := &checker{reg: reg, name: names[i], sink: opts.Progress, pool: pool}
			c.failures = append(c.failures, rejected[id]...)
			c.checks = len(rejected[id])
			c.run(id)
			results[i] = ctorResult{checks: c.checks, failures: c.failures}

			status := StatusDone
			var err error
			if len(c.failures) > 0 {
				status, err = StatusError, c.failures[0]
			}
			cspan.WithExtra("checks", strconv.Itoa(c.checks))
			emit(opts.Progress, Event{Ctor: names[i], Stage: StageClassify, Status: status, Err: err, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Ctors: len(ids), Samples: len(pool)}
	for _, r := range results {
		rep.Checks += r.checks
		rep.Failures = append(rep.Failures, r.failures...)
	}
	status := StatusDone
	if !rep.OK() {
		status = StatusError
	}
	emit(opts.Progress, Event{Stage: StageClassify, Status: status, Err: rep.Err()})
	span.WithExtra("failures", strconv.Itoa(len(rep.Failures)))
	return rep, nil
}

// collapseSamples drops samples that cannot be collapsed, e.g. members of
// an alias cycle, so that they do not fail every other constructor's order
// checks. Their failure is charged to their own constructor.
func collapseSamples(reg *rtti.Registry, samples []Sample) ([]Sample, map[rtti.CtorID][]Failure) {
	pool := samples[:0:0]
	rejected := make(map[rtti.CtorID][]Failure)
	for _, s := range samples {
		err := guard(func() error {
			reg.Collapse(s.Type, nil)
			return nil
		})
		if err != nil {
			rejected[s.Owner] = append(rejected[s.Owner], Failure{
				Ctor:  reg.MustLookup(s.Owner).QualifiedName(),
				Stage: StageSample,
				Check: "collapse " + reg.Label(s.Type),
				Err:   err,
			})
			continue
		}
		pool = append(pool, s)
	}
	return pool, rejected
}

// guard runs fn, converting a corrupt-table panic into an error.
func guard(fn func() error) (err error) {
	defer rtti.Recover(&err)
	return fn()
}
