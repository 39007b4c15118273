package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/text/encoding/unicode"
	xtransform "golang.org/x/text/transform"

	"tsxload/internal/bridge"
	"tsxload/internal/config"
	"tsxload/internal/diag"
	"tsxload/internal/dialect"
	"tsxload/internal/hook"
	"tsxload/internal/trace"
	"tsxload/internal/transform"
)

// ReactPrelude is prepended to sources whose config uses the classic JSX
// transform, which emits React.createElement without importing React.
const ReactPrelude = "import * as React from 'react';\n"

var (
	// ErrTranspile is wrapped by Load errors caused by transform diagnostics.
	ErrTranspile = errors.New("transpile failed")
	// ErrConfig is wrapped by Load errors caused by config lookup.
	ErrConfig = errors.New("transform config unavailable")
)

// Interceptor is both a hook.Resolver and a hook.Loader.
type Interceptor struct {
	locator    config.Locator
	engine     transform.Engine
	classifier dialect.Classifier
	reporter   diag.Reporter
	policy     FailurePolicy
	requesters bridge.Requesters
}

var (
	_ hook.Resolver = (*Interceptor)(nil)
	_ hook.Loader   = (*Interceptor)(nil)
)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithClassifier replaces the default extension sets.
func WithClassifier(c dialect.Classifier) Option {
	return func(i *Interceptor) { i.classifier = c }
}

// WithReporter sets where transform errors and warnings go. The default
// reporter drops them.
func WithReporter(r diag.Reporter) Option {
	return func(i *Interceptor) { i.reporter = r }
}

// WithFailurePolicy sets the behaviour after a failed transform.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(i *Interceptor) { i.policy = p }
}

// New returns an interceptor that discovers configs with locator and
// transforms with engine.
func New(locator config.Locator, engine transform.Engine, opts ...Option) *Interceptor {
	i := &Interceptor{
		locator:  locator,
		engine:   engine,
		reporter: diag.NopReporter{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Pending reports how many dialect modules were resolved and not yet loaded.
func (i *Interceptor) Pending() int {
	return i.requesters.Len()
}

// Resolve implements hook.Resolver.
func (i *Interceptor) Resolve(ctx context.Context, specifier string, rctx hook.ResolveContext, next hook.NextResolve) (hook.ResolveResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeHook, "resolve")

	// Classify the final URL: hooks further down may have rewritten the
	// specifier or its target.
	res, err := next(ctx, specifier, rctx)
	if err != nil {
		span.End("error")
		return hook.ResolveResult{}, err
	}

	kind := i.classifier.URL(res.URL)
	if !kind.Transformable() {
		span.End(res.URL)
		return res, nil
	}

	i.requesters.Record(res.URL, parseRequester(rctx.ParentURL))
	res.Format = hook.FormatOf(kind)
	res.Dialect = kind
	span.WithExtra("dialect", kind.String()).
		WithExtra("parent", rctx.ParentURL).
		End(res.URL)
	return res, nil
}

// Load implements hook.Loader.
func (i *Interceptor) Load(ctx context.Context, moduleURL string, lctx hook.LoadContext, next hook.NextLoad) (hook.LoadResult, error) {
	kind := lctx.Dialect
	if !kind.Transformable() {
		kind = dialect.FromFormat(string(lctx.Format))
	}
	if !kind.Transformable() {
		return next(ctx, moduleURL, lctx)
	}

	ctx, span := trace.Start(ctx, trace.ScopeHook, "load")
	span.WithExtra("dialect", kind.String())

	// Claimed before the raw load so a failing fetch leaves no entry behind.
	requester := i.claimRequester(ctx, moduleURL)

	raw, err := next(ctx, moduleURL, hook.LoadContext{
		Format:     hook.FormatModule,
		Conditions: lctx.Conditions,
	})
	if err != nil {
		span.End("error")
		return hook.LoadResult{}, err
	}
	text, err := decodeSource(raw.Source)
	if err != nil {
		span.End("error")
		return hook.LoadResult{}, fmt.Errorf("decode %s: %w", moduleURL, err)
	}

	cfg, err := i.locate(ctx, requester)
	if err != nil {
		span.End("error")
		return hook.LoadResult{}, fmt.Errorf("%w: %s: %w", ErrConfig, moduleURL, err)
	}
	if cfg.InjectsReact() {
		text = ReactPrelude + text
	}

	res, err := i.transform(ctx, transform.Request{
		Source:  text,
		URL:     moduleURL,
		Dialect: kind,
		Config:  cfg,
	})
	var terr *transform.Error
	switch {
	case errors.As(err, &terr):
		i.reportWarnings(moduleURL, terr.Warnings)
		for _, m := range terr.Errors {
			i.reporter.Report(diag.FromMessage(diag.SevError, diag.TranspileError, moduleURL, m))
		}
		span.WithExtra("errors", fmt.Sprint(len(terr.Errors)))
		if i.policy == FallbackRaw {
			span.End("fallback")
			return hook.LoadResult{Format: hook.FormatModule, Source: raw.Source}, nil
		}
		span.End("error")
		return hook.LoadResult{}, fmt.Errorf("%w: %s: %w", ErrTranspile, moduleURL, terr)
	case err != nil:
		span.End("error")
		return hook.LoadResult{}, fmt.Errorf("transform %s: %w", moduleURL, err)
	}

	i.reportWarnings(moduleURL, res.Warnings)
	span.End(moduleURL)
	return hook.LoadResult{Format: hook.FormatModule, Source: []byte(res.Code)}, nil
}

func (i *Interceptor) reportWarnings(moduleURL string, warnings []transform.Message) {
	for _, w := range warnings {
		i.reporter.Report(diag.FromMessage(diag.SevWarning, diag.TranspileWarning, moduleURL, w))
	}
}

// claimRequester returns the requester recorded for moduleURL. A load
// under a URL no resolve recorded, because a later hook rewrote it, gets the
// requester of the most recent resolve and a trace point saying so.
func (i *Interceptor) claimRequester(ctx context.Context, moduleURL string) *url.URL {
	requester, match := i.requesters.Claim(moduleURL)
	if match != bridge.MatchExact {
		trace.Point(trace.FromContext(ctx), trace.ScopeHook, "requester",
			fmt.Sprintf("%s match for %s", match, moduleURL), trace.CurrentSpan(ctx))
	}
	return requester
}

func (i *Interceptor) locate(ctx context.Context, requester *url.URL) (*config.Config, error) {
	ctx, span := trace.Start(ctx, trace.ScopeModule, "config")
	cfg, err := i.locator.Locate(ctx, requester)
	if err != nil {
		span.End("error")
		return nil, err
	}
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if cfg.Path != "" {
		span.WithExtra("path", cfg.Path)
	}
	span.End(string(cfg.JSX))
	return cfg, nil
}

func (i *Interceptor) transform(ctx context.Context, req transform.Request) (transform.Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeModule, "transform")
	res, err := i.engine.Transform(ctx, req)
	if err != nil {
		span.End("error")
		return res, err
	}
	span.End("ok")
	return res, nil
}

func parseRequester(parent string) *url.URL {
	if parent == "" {
		return nil
	}
	u, err := url.Parse(parent)
	if err != nil {
		return nil
	}
	return u
}

// decodeSource turns a raw module payload into text. A UTF-8 or UTF-16 byte
// order mark selects the encoding and is dropped; anything else is UTF-8.
func decodeSource(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := xtransform.Bytes(dec, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
