package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from context, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type spanKey struct{}

// ParentSpan returns the span ID stored by WithSpan, or 0.
func ParentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanKey{}).(uint64)
	return id
}

// WithSpan records s as the parent of spans started from the returned context.
func WithSpan(ctx context.Context, s *Span) context.Context {
	if s == nil || s.ID() == 0 {
		return ctx
	}
	return context.WithValue(ctx, spanKey{}, s.ID())
}

// Start begins a span whose parent is taken from ctx and returns a context
// carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	s := Begin(FromContext(ctx), scope, name, ParentSpan(ctx))
	return WithSpan(ctx, s), s
}
