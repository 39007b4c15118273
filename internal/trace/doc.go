// Package trace provides the tracing subsystem used by tsxload.
//
// Every resolve and load that passes through the interceptors can be traced,
// together with the config lookup and the transform call made on behalf of a
// module. It is the primary tool for finding out which requester location a
// load was attributed to, and for spotting a transform engine that hangs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	tsxload check --trace=- --trace-level=detail ./src
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped on panic
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelHook: CLI commands and hook boundaries (resolve, load)
//   - LevelDetail: per-module work (config lookup, transform)
//   - LevelDebug: everything
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeHook, "load", parentID)
//	defer span.End("")
package trace
