package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"tsxload/internal/config"
	"tsxload/internal/dialect"
	"tsxload/internal/trace"
)

// Esbuild transforms in-process with esbuild.
type Esbuild struct{}

// Transform implements Engine.
func (Esbuild) Transform(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	opts, err := EsbuildOptions(req)
	if err != nil {
		return Result{}, err
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeEngine, "esbuild", trace.CurrentSpan(ctx))
	res := api.Transform(req.Source, opts)
	span.WithExtra("errors", fmt.Sprint(len(res.Errors))).
		WithExtra("warnings", fmt.Sprint(len(res.Warnings))).
		End(req.URL)

	if len(res.Errors) > 0 {
		return Result{}, &Error{Errors: fromEsbuild(res.Errors), Warnings: fromEsbuild(res.Warnings)}
	}
	return Result{Code: string(res.Code), Warnings: fromEsbuild(res.Warnings)}, nil
}

var esbuildTargets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

// EsbuildOptions maps a request onto esbuild transform options.
func EsbuildOptions(req Request) (api.TransformOptions, error) {
	cfg := req.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}

	loader, err := esbuildLoader(cfg.Loader, req.Dialect)
	if err != nil {
		return api.TransformOptions{}, err
	}
	target, ok := esbuildTargets[strings.ToLower(cfg.Target)]
	if !ok {
		return api.TransformOptions{}, fmt.Errorf("%w: unsupported target %q", config.ErrInvalidConfig, cfg.Target)
	}

	opts := api.TransformOptions{
		LogLevel:          api.LogLevelSilent,
		Loader:            loader,
		Sourcefile:        req.URL,
		Target:            target,
		JSXFactory:        cfg.JSXFactory,
		JSXFragment:       cfg.JSXFragment,
		JSXImportSource:   cfg.JSXImportSource,
		JSXDev:            cfg.JSXDev,
		MinifyWhitespace:  cfg.Minify,
		MinifyIdentifiers: cfg.Minify,
		MinifySyntax:      cfg.Minify,
		Define:            cfg.Define,
		TsconfigRaw:       cfg.TsconfigRaw,
	}

	switch cfg.JSX {
	case config.JSXTransform:
		opts.JSX = api.JSXTransform
	case config.JSXPreserve:
		opts.JSX = api.JSXPreserve
	default:
		opts.JSX = api.JSXAutomatic
	}

	switch cfg.Format {
	case config.FormatCommonJS:
		opts.Format = api.FormatCommonJS
	default:
		opts.Format = api.FormatESModule
	}

	if cfg.Sourcemap == config.SourcemapInline {
		opts.Sourcemap = api.SourceMapInline
	} else {
		opts.Sourcemap = api.SourceMapNone
	}

	return opts, nil
}

func esbuildLoader(override string, k dialect.Kind) (api.Loader, error) {
	switch override {
	case "js":
		return api.LoaderJS, nil
	case "jsx":
		return api.LoaderJSX, nil
	case "ts":
		return api.LoaderTS, nil
	case "tsx":
		return api.LoaderTSX, nil
	case "":
	default:
		return api.LoaderNone, fmt.Errorf("%w: unsupported loader %q", config.ErrInvalidConfig, override)
	}
	switch k {
	case dialect.JSX:
		return api.LoaderJSX, nil
	case dialect.TSX:
		return api.LoaderTSX, nil
	default:
		return api.LoaderJS, nil
	}
}

func fromEsbuild(msgs []api.Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		msg := Message{Text: m.Text}
		if m.Location != nil {
			msg.Location = &Location{
				File:     m.Location.File,
				Line:     m.Location.Line,
				Column:   m.Location.Column,
				LineText: m.Location.LineText,
			}
		}
		out = append(out, msg)
	}
	return out
}
