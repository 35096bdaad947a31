// Package trace records structured events from the rtti tools.
//
// Loading declarations, reading or writing a table image and running the
// property verifier all emit spans; the core descriptor operations do not.
//
//	rtti verify --decl types.toml --trace=- --trace-level=detail
//
// # Sinks
//
//   - Nop: tracing disabled
//   - StreamTracer: writes each event as it happens (file or stderr)
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several sinks
//
// # Levels and scopes
//
// LevelPhase shows driver and pass spans, LevelDetail adds one span per
// type constructor, LevelDebug adds single operations (compare, reify).
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "load", 0)
//	defer span.End("")
package trace
