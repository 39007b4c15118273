package hook

import (
	"context"

	"tsxload/internal/dialect"
)

// Format is the host's module format tag.
type Format string

const (
	FormatNone     Format = ""
	FormatModule   Format = "module"
	FormatCommonJS Format = "commonjs"
	FormatJSON     Format = "json"
	FormatBuiltin  Format = "builtin"
	FormatWasm     Format = "wasm"
	// FormatJSX and FormatTSX tag modules that still need a transform.
	FormatJSX Format = "jsx"
	FormatTSX Format = "tsx"
)

// FormatOf returns the format tag that carries dialect k.
func FormatOf(k dialect.Kind) Format {
	return Format(k.Format())
}

// ResolveContext is what a resolve hook learns about the import.
type ResolveContext struct {
	// ParentURL is the URL of the importing module; empty for entry points.
	ParentURL  string
	Conditions []string
}

// ResolveResult is a resolved module identity.
type ResolveResult struct {
	URL     string
	Format  Format
	Dialect dialect.Kind
	// ShortCircuit signals that a hook intentionally did not call next.
	ShortCircuit bool
}

// LoadContext is what a load hook learns about the module being loaded.
type LoadContext struct {
	Format     Format
	Dialect    dialect.Kind
	Conditions []string
}

// LoadResult is the module source handed to the host for execution.
type LoadResult struct {
	Format       Format
	Source       []byte
	ShortCircuit bool
}

// NextResolve continues a resolve chain.
type NextResolve func(ctx context.Context, specifier string, rctx ResolveContext) (ResolveResult, error)

// NextLoad continues a load chain.
type NextLoad func(ctx context.Context, url string, lctx LoadContext) (LoadResult, error)

// Resolver is a resolve hook.
type Resolver interface {
	Resolve(ctx context.Context, specifier string, rctx ResolveContext, next NextResolve) (ResolveResult, error)
}

// Loader is a load hook.
type Loader interface {
	Load(ctx context.Context, url string, lctx LoadContext, next NextLoad) (LoadResult, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, specifier string, rctx ResolveContext, next NextResolve) (ResolveResult, error)

func (f ResolverFunc) Resolve(ctx context.Context, specifier string, rctx ResolveContext, next NextResolve) (ResolveResult, error) {
	return f(ctx, specifier, rctx, next)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string, lctx LoadContext, next NextLoad) (LoadResult, error)

func (f LoaderFunc) Load(ctx context.Context, url string, lctx LoadContext, next NextLoad) (LoadResult, error) {
	return f(ctx, url, lctx, next)
}
