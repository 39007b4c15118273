package host

import (
	"context"

	"tsxload/internal/hook"
	"tsxload/internal/observ"
	"tsxload/internal/trace"
)

// Module is the outcome of running one specifier through the chain.
type Module struct {
	Specifier string
	Resolved  hook.ResolveResult
	Loaded    hook.LoadResult
	Timings   observ.Report
}

// Runner drives specifiers through a hook chain whose innermost steps are
// an FS host.
type Runner struct {
	chain *hook.Chain
}

// NewRunner returns a runner over fsys with hooks registered in order, so
// the last one runs first.
func NewRunner(fsys *FS, hooks ...any) (*Runner, error) {
	chain := hook.NewChain(fsys.Resolve, fsys.Load)
	for _, h := range hooks {
		if err := chain.Register(h); err != nil {
			return nil, err
		}
	}
	return &Runner{chain: chain}, nil
}

// Chain exposes the underlying chain for callers that resolve and load
// separately.
func (r *Runner) Chain() *hook.Chain {
	return r.chain
}

// Run resolves specifier as imported by parentURL and loads the result.
// Entry modules conventionally use DirURL of their directory as parent.
func (r *Runner) Run(ctx context.Context, specifier, parentURL string) (Module, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "run")
	mod := Module{Specifier: specifier}
	timer := observ.NewTimer()

	phase := timer.Begin("resolve")
	res, err := r.chain.Resolve(ctx, specifier, hook.ResolveContext{ParentURL: parentURL})
	if err != nil {
		timer.End(phase, "error")
		mod.Timings = timer.Report()
		span.End("resolve error")
		return mod, &StageError{Stage: StageResolve, Specifier: specifier, Err: err}
	}
	timer.End(phase, res.Dialect.String())
	mod.Resolved = res

	phase = timer.Begin("load")
	out, err := r.chain.Load(ctx, res.URL, hook.LoadContext{Format: res.Format, Dialect: res.Dialect})
	if err != nil {
		timer.End(phase, "error")
		mod.Timings = timer.Report()
		span.End("load error")
		return mod, &StageError{Stage: StageLoad, Specifier: specifier, URL: res.URL, Err: err}
	}
	timer.End(phase, string(out.Format))
	mod.Loaded = out
	mod.Timings = timer.Report()
	span.End(res.URL)
	return mod, nil
}
