// Package trace records what the HIR pipeline is doing.
//
// Events are grouped in spans (begin/end pairs) and points. Each event carries a scope, and
// the tracer level decides which scopes are kept:
//
//   - ScopeDriver: CLI commands and per-file jobs
//   - ScopePass: passes over one program (decode, normalize, check, encode)
//   - ScopeBoundary: evaluation boundaries inside normalization
//   - ScopeNode: individual node rewrites
//
// Tracers are passed down through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "hir.normalize", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
//
// StreamTracer writes events as they happen, RingTracer keeps the most recent ones in memory
// for dumping after a failure, MultiTracer fans out to both.
package trace
