package loader

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"tsxload/internal/config"
	"tsxload/internal/diag"
	"tsxload/internal/dialect"
	"tsxload/internal/hook"
	"tsxload/internal/trace"
	"tsxload/internal/transform"
)

// fakeHost is the terminal resolve and load of a test chain.
type fakeHost struct {
	urls    map[string]string
	sources map[string][]byte
	loaded  []hook.LoadContext
}

func (h *fakeHost) resolve(_ context.Context, specifier string, _ hook.ResolveContext) (hook.ResolveResult, error) {
	u, ok := h.urls[specifier]
	if !ok {
		return hook.ResolveResult{}, errNotFound
	}
	return hook.ResolveResult{URL: u, Format: hook.FormatModule}, nil
}

func (h *fakeHost) load(_ context.Context, u string, lctx hook.LoadContext) (hook.LoadResult, error) {
	h.loaded = append(h.loaded, lctx)
	src, ok := h.sources[u]
	if !ok {
		return hook.LoadResult{}, errNotFound
	}
	return hook.LoadResult{Format: lctx.Format, Source: src}, nil
}

var errNotFound = errors.New("not found")

// recordingLocator remembers every requester it was asked about.
type recordingLocator struct {
	mu   sync.Mutex
	cfg  config.Config
	seen []string
	err  error
}

func (l *recordingLocator) Locate(_ context.Context, location *url.URL) (*config.Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if location == nil {
		l.seen = append(l.seen, "")
	} else {
		l.seen = append(l.seen, location.String())
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.cfg.Clone(), nil
}

// echoEngine returns its input unchanged and remembers it.
type echoEngine struct {
	got []transform.Request
}

func (e *echoEngine) Transform(_ context.Context, req transform.Request) (transform.Result, error) {
	e.got = append(e.got, req)
	return transform.Result{Code: req.Source}, nil
}

func automaticConfig() config.Config {
	cfg := config.Default()
	cfg.JSX = config.JSXAutomatic
	return cfg
}

func TestResolveTagsDialectModules(t *testing.T) {
	cases := []struct {
		url    string
		format hook.Format
		kind   dialect.Kind
	}{
		{"file:///app/view.jsx", hook.FormatJSX, dialect.JSX},
		{"file:///app/main.ts", hook.FormatTSX, dialect.TSX},
		{"file:///app/main.mts", hook.FormatTSX, dialect.TSX},
		{"file:///app/App.tsx", hook.FormatTSX, dialect.TSX},
		{"file:///app/App.tsx?v=2", hook.FormatTSX, dialect.TSX},
		{"file:///app/util.js", hook.FormatModule, dialect.Unclassified},
		{"file:///app/data.json", hook.FormatModule, dialect.Unclassified},
		{"node:fs", hook.FormatModule, dialect.Unclassified},
	}
	for _, tc := range cases {
		host := &fakeHost{urls: map[string]string{"x": tc.url}}
		i := New(&recordingLocator{cfg: automaticConfig()}, &echoEngine{})
		res, err := i.Resolve(context.Background(), "x", hook.ResolveContext{ParentURL: "file:///app/entry.js"}, host.resolve)
		if err != nil {
			t.Fatalf("%s: Resolve: %v", tc.url, err)
		}
		if res.URL != tc.url {
			t.Fatalf("%s: url rewritten to %q", tc.url, res.URL)
		}
		if res.Format != tc.format || res.Dialect != tc.kind {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", tc.url, res.Format, res.Dialect, tc.format, tc.kind)
		}
		wantPending := 0
		if tc.kind.Transformable() {
			wantPending = 1
		}
		if got := i.Pending(); got != wantPending {
			t.Fatalf("%s: pending = %d, want %d", tc.url, got, wantPending)
		}
	}
}

func TestResolvePropagatesErrorsVerbatim(t *testing.T) {
	host := &fakeHost{}
	i := New(&recordingLocator{}, &echoEngine{})
	_, err := i.Resolve(context.Background(), "missing", hook.ResolveContext{}, host.resolve)
	if err != errNotFound {
		t.Fatalf("err = %v, want the delegate's error unchanged", err)
	}
	if i.Pending() != 0 {
		t.Fatalf("failed resolve left a bridge entry")
	}
}

func TestLoadPassesThroughOtherModules(t *testing.T) {
	src := []byte("module.exports = 1;\n")
	host := &fakeHost{sources: map[string][]byte{"file:///a.cjs": src}}
	eng := &echoEngine{}
	loc := &recordingLocator{}
	i := New(loc, eng)

	lctx := hook.LoadContext{Format: hook.FormatCommonJS}
	res, err := i.Load(context.Background(), "file:///a.cjs", lctx, host.load)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Format != hook.FormatCommonJS || &res.Source[0] != &src[0] {
		t.Fatalf("pass-through result altered: %+v", res)
	}
	if len(host.loaded) != 1 || host.loaded[0].Format != hook.FormatCommonJS {
		t.Fatalf("delegate saw %+v", host.loaded)
	}
	if len(eng.got) != 0 || len(loc.seen) != 0 {
		t.Fatalf("engine or locator consulted for a plain module")
	}
}

func TestLoadUsesRequesterOfResolvedModule(t *testing.T) {
	host := &fakeHost{
		urls: map[string]string{
			"./a.tsx": "file:///proj/a.tsx",
			"./b.tsx": "file:///proj/b.tsx",
		},
		sources: map[string][]byte{
			"file:///proj/a.tsx": []byte("export const a = 1;\n"),
			"file:///proj/b.tsx": []byte("export const b = 2;\n"),
		},
	}
	loc := &recordingLocator{cfg: automaticConfig()}
	i := New(loc, &echoEngine{})
	ctx := context.Background()

	a, err := i.Resolve(ctx, "./a.tsx", hook.ResolveContext{ParentURL: "file:///proj/one/main.js"}, host.resolve)
	if err != nil {
		t.Fatal(err)
	}
	b, err := i.Resolve(ctx, "./b.tsx", hook.ResolveContext{ParentURL: "file:///proj/two/main.js"}, host.resolve)
	if err != nil {
		t.Fatal(err)
	}

	// Load out of resolution order: each module still sees its own importer.
	if _, err := i.Load(ctx, b.URL, hook.LoadContext{Format: b.Format, Dialect: b.Dialect}, host.load); err != nil {
		t.Fatal(err)
	}
	if _, err := i.Load(ctx, a.URL, hook.LoadContext{Format: a.Format, Dialect: a.Dialect}, host.load); err != nil {
		t.Fatal(err)
	}
	want := []string{"file:///proj/two/main.js", "file:///proj/one/main.js"}
	if strings.Join(loc.seen, ",") != strings.Join(want, ",") {
		t.Fatalf("locator saw %v, want %v", loc.seen, want)
	}
	if i.Pending() != 0 {
		t.Fatalf("bridge not drained: %d", i.Pending())
	}
	for _, lctx := range host.loaded {
		if lctx.Format != hook.FormatModule || lctx.Dialect != dialect.Unclassified {
			t.Fatalf("delegate asked for %+v, want plain module", lctx)
		}
	}
}

func TestLoadWithoutResolveHasNoRequester(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///entry.ts": []byte("export {};\n")}}
	loc := &recordingLocator{cfg: automaticConfig()}
	i := New(loc, &echoEngine{})
	if _, err := i.Load(context.Background(), "file:///entry.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load); err != nil {
		t.Fatal(err)
	}
	if len(loc.seen) != 1 || loc.seen[0] != "" {
		t.Fatalf("locator saw %v, want a single nil requester", loc.seen)
	}
}

func TestLoadFindsRequesterAfterOuterHookRewritesURL(t *testing.T) {
	tests := []struct {
		name    string
		rewrite func(string) string
		match   string
	}{
		{name: "query", rewrite: func(u string) string { return u + "?v=1" }, match: "stripped match"},
		{name: "rename", rewrite: func(string) string { return "file:///proj/sub/a.v1.tsx" }, match: "last match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const resolved = "file:///proj/sub/a.tsx"
			host := &fakeHost{
				urls:    map[string]string{"./a.tsx": resolved},
				sources: map[string][]byte{tt.rewrite(resolved): []byte("export {};\n")},
			}
			loc := &recordingLocator{cfg: automaticConfig()}
			i := New(loc, &echoEngine{})
			chain := hook.NewChain(host.resolve, host.load)
			outer := hook.ResolverFunc(func(ctx context.Context, specifier string, rctx hook.ResolveContext, next hook.NextResolve) (hook.ResolveResult, error) {
				res, err := next(ctx, specifier, rctx)
				res.URL = tt.rewrite(res.URL)
				return res, err
			})
			for _, h := range []any{i, outer} {
				if err := chain.Register(h); err != nil {
					t.Fatal(err)
				}
			}

			ring := trace.NewRingTracer(64, trace.LevelDebug)
			ctx := trace.WithTracer(context.Background(), ring)
			res, err := chain.Resolve(ctx, "./a.tsx", hook.ResolveContext{ParentURL: "file:///proj/sub/main.js"})
			if err != nil {
				t.Fatal(err)
			}
			if res.URL == resolved {
				t.Fatal("outer hook did not rewrite the URL")
			}
			if _, err := chain.Load(ctx, res.URL, hook.LoadContext{Format: res.Format, Dialect: res.Dialect}); err != nil {
				t.Fatal(err)
			}

			if len(loc.seen) != 1 || loc.seen[0] != "file:///proj/sub/main.js" {
				t.Fatalf("locator saw %q, want the importer", loc.seen)
			}
			var points []string
			for _, ev := range ring.Snapshot() {
				if ev.Kind == trace.KindPoint && ev.Name == "requester" {
					points = append(points, ev.Detail)
				}
			}
			if len(points) != 1 || !strings.HasPrefix(points[0], tt.match) {
				t.Fatalf("requester trace points = %q, want one %q", points, tt.match)
			}
		})
	}
}

func TestLoadFailureDrainsBridge(t *testing.T) {
	host := &fakeHost{urls: map[string]string{"./gone.tsx": "file:///proj/gone.tsx"}}
	i := New(&recordingLocator{cfg: automaticConfig()}, &echoEngine{})
	ctx := context.Background()

	res, err := i.Resolve(ctx, "./gone.tsx", hook.ResolveContext{ParentURL: "file:///proj/main.js"}, host.resolve)
	if err != nil {
		t.Fatal(err)
	}
	if i.Pending() != 1 {
		t.Fatalf("Pending() = %d after resolve, want 1", i.Pending())
	}
	if _, err := i.Load(ctx, res.URL, hook.LoadContext{Format: res.Format, Dialect: res.Dialect}, host.load); !errors.Is(err, errNotFound) {
		t.Fatalf("err = %v, want delegate error", err)
	}
	if i.Pending() != 0 {
		t.Fatalf("Pending() = %d after failed load, want 0", i.Pending())
	}
}

func TestLoadPrependsReactPreludeForClassicTransform(t *testing.T) {
	raw := "export default () => <div/>;\n"
	host := &fakeHost{sources: map[string][]byte{"file:///v.jsx": []byte(raw)}}
	cfg := config.Default()
	cfg.JSX = config.JSXTransform
	eng := &echoEngine{}
	i := New(&recordingLocator{cfg: cfg}, eng)

	res, err := i.Load(context.Background(), "file:///v.jsx", hook.LoadContext{Format: hook.FormatJSX, Dialect: dialect.JSX}, host.load)
	if err != nil {
		t.Fatal(err)
	}
	if len(eng.got) != 1 || eng.got[0].Source != ReactPrelude+raw {
		t.Fatalf("engine got %+v", eng.got)
	}
	if eng.got[0].Dialect != dialect.JSX || eng.got[0].URL != "file:///v.jsx" {
		t.Fatalf("request = %+v", eng.got[0])
	}
	if res.Format != hook.FormatModule || string(res.Source) != ReactPrelude+raw {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadDoesNotPrependForAutomaticRuntime(t *testing.T) {
	raw := "export const x = 1;\n"
	host := &fakeHost{sources: map[string][]byte{"file:///v.jsx": []byte(raw)}}
	eng := &echoEngine{}
	i := New(&recordingLocator{cfg: automaticConfig()}, eng)
	if _, err := i.Load(context.Background(), "file:///v.jsx", hook.LoadContext{Format: hook.FormatJSX}, host.load); err != nil {
		t.Fatal(err)
	}
	if eng.got[0].Source != raw {
		t.Fatalf("source = %q, want %q", eng.got[0].Source, raw)
	}
}

func TestLoadStripsByteOrderMark(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///b.ts": append([]byte{0xEF, 0xBB, 0xBF}, "export {};\n"...)}}
	eng := &echoEngine{}
	i := New(&recordingLocator{cfg: automaticConfig()}, eng)
	if _, err := i.Load(context.Background(), "file:///b.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load); err != nil {
		t.Fatal(err)
	}
	if eng.got[0].Source != "export {};\n" {
		t.Fatalf("source = %q", eng.got[0].Source)
	}
}

func failingEngine(msgs ...transform.Message) transform.Engine {
	return transform.EngineFunc(func(context.Context, transform.Request) (transform.Result, error) {
		return transform.Result{}, &transform.Error{Errors: msgs}
	})
}

func TestLoadReportsEachTransformError(t *testing.T) {
	raw := "const a = ;\nconst b = ;\n"
	host := &fakeHost{sources: map[string][]byte{"file:///bad.ts": []byte(raw)}}
	eng := failingEngine(
		transform.Message{Text: "Unexpected \";\"", Location: &transform.Location{File: "file:///bad.ts", Line: 1, Column: 10, LineText: "const a = ;"}},
		transform.Message{Text: "Unexpected \";\"", Location: &transform.Location{File: "file:///bad.ts", Line: 2, Column: 10, LineText: "const b = ;"}},
	)

	var errs, warns bytes.Buffer
	reporter := diag.StreamReporter{Errors: &errs, Warnings: &warns}
	i := New(&recordingLocator{cfg: automaticConfig()}, eng, WithReporter(reporter))

	_, err := i.Load(context.Background(), "file:///bad.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if !errors.Is(err, ErrTranspile) {
		t.Fatalf("err = %v, want ErrTranspile", err)
	}
	var terr *transform.Error
	if !errors.As(err, &terr) || len(terr.Errors) != 2 {
		t.Fatalf("err does not carry the engine error: %v", err)
	}

	want := "TranspileError: Unexpected \";\"\n    at file:///bad.ts:1:10\n    at: const a = ;\n" +
		"TranspileError: Unexpected \";\"\n    at file:///bad.ts:2:10\n    at: const b = ;\n"
	if errs.String() != want {
		t.Fatalf("error stream:\n%s\nwant:\n%s", errs.String(), want)
	}
	if warns.Len() != 0 {
		t.Fatalf("unexpected warnings %q", warns.String())
	}
}

func TestLoadReportsWarningsOfFailedTransform(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///mixed.ts": []byte("x")}}
	eng := transform.EngineFunc(func(context.Context, transform.Request) (transform.Result, error) {
		return transform.Result{}, &transform.Error{
			Errors:   []transform.Message{{Text: "boom"}},
			Warnings: []transform.Message{{Text: "duplicate key"}},
		}
	})

	var errs, warns bytes.Buffer
	i := New(&recordingLocator{cfg: automaticConfig()}, eng,
		WithReporter(diag.StreamReporter{Errors: &errs, Warnings: &warns}))
	_, err := i.Load(context.Background(), "file:///mixed.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if !errors.Is(err, ErrTranspile) {
		t.Fatalf("err = %v, want ErrTranspile", err)
	}
	if warns.String() != "duplicate key\n" {
		t.Fatalf("warnings = %q", warns.String())
	}
	if errs.String() != "TranspileError: boom\n    at file:///mixed.ts\n" {
		t.Fatalf("errors = %q", errs.String())
	}
}

func TestLoadFallbackRawReturnsUntransformedSource(t *testing.T) {
	raw := []byte("const a = ;\n")
	host := &fakeHost{sources: map[string][]byte{"file:///bad.tsx": raw}}
	eng := failingEngine(transform.Message{Text: "boom"})

	var errs bytes.Buffer
	i := New(&recordingLocator{cfg: automaticConfig()}, eng,
		WithReporter(diag.StreamReporter{Errors: &errs}),
		WithFailurePolicy(FallbackRaw),
	)
	res, err := i.Load(context.Background(), "file:///bad.tsx", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Format != hook.FormatModule || !bytes.Equal(res.Source, raw) {
		t.Fatalf("result = %+v", res)
	}
	if errs.String() != "TranspileError: boom\n    at file:///bad.tsx\n" {
		t.Fatalf("error stream = %q", errs.String())
	}
}

func TestLoadDiagnosticLinesCountThePrelude(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///v.jsx": []byte("const a = ;\n")}}
	cfg := config.Default()
	cfg.JSX = config.JSXTransform
	eng := transform.EngineFunc(func(_ context.Context, req transform.Request) (transform.Result, error) {
		lines := strings.Split(req.Source, "\n")
		return transform.Result{}, &transform.Error{Errors: []transform.Message{{
			Text:     "Unexpected \";\"",
			Location: &transform.Location{Line: 2, Column: 10, LineText: lines[1]},
		}}}
	})
	var errs bytes.Buffer
	i := New(&recordingLocator{cfg: cfg}, eng, WithReporter(diag.StreamReporter{Errors: &errs}))
	if _, err := i.Load(context.Background(), "file:///v.jsx", hook.LoadContext{Format: hook.FormatJSX}, host.load); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errs.String(), "file:///v.jsx:2:10\n    at: const a = ;\n") {
		t.Fatalf("error stream = %q", errs.String())
	}
}

func TestLoadReportsWarnings(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///w.ts": []byte("ignored")}}
	eng := transform.EngineFunc(func(context.Context, transform.Request) (transform.Result, error) {
		return transform.Result{Code: "X", Warnings: []transform.Message{{Text: "w1"}}}, nil
	})
	var errs, warns bytes.Buffer
	i := New(&recordingLocator{cfg: automaticConfig()}, eng,
		WithReporter(diag.StreamReporter{Errors: &errs, Warnings: &warns}))
	res, err := i.Load(context.Background(), "file:///w.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Source) != "X" || res.Format != hook.FormatModule {
		t.Fatalf("result = %+v", res)
	}
	if warns.String() != "w1\n" || errs.Len() != 0 {
		t.Fatalf("warnings = %q, errors = %q", warns.String(), errs.String())
	}
}

func TestLoadWrapsLocatorAndEngineFailures(t *testing.T) {
	host := &fakeHost{sources: map[string][]byte{"file:///m.ts": []byte("x")}}
	cfgErr := errors.New("bad config")
	i := New(&recordingLocator{err: cfgErr}, &echoEngine{})
	_, err := i.Load(context.Background(), "file:///m.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if !errors.Is(err, cfgErr) || !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped config error", err)
	}

	engErr := errors.New("engine crashed")
	i = New(&recordingLocator{cfg: automaticConfig()}, transform.EngineFunc(func(context.Context, transform.Request) (transform.Result, error) {
		return transform.Result{}, engErr
	}), WithFailurePolicy(FallbackRaw))
	_, err = i.Load(context.Background(), "file:///m.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if !errors.Is(err, engErr) || errors.Is(err, ErrTranspile) {
		t.Fatalf("err = %v, want wrapped engine error", err)
	}

	_, err = i.Load(context.Background(), "file:///gone.ts", hook.LoadContext{Format: hook.FormatTSX}, host.load)
	if err != errNotFound {
		t.Fatalf("err = %v, want delegate error unchanged", err)
	}
}

func TestInterceptorInChainWithEsbuild(t *testing.T) {
	host := &fakeHost{
		urls:    map[string]string{"./plain.ts": "file:///plain.ts"},
		sources: map[string][]byte{"file:///plain.ts": []byte("export const a = 1;\n")},
	}
	chain := hook.NewChain(host.resolve, host.load)
	cfg := automaticConfig()
	cfg.Sourcemap = config.SourcemapNone
	if err := chain.Register(New(config.Static(cfg), transform.Esbuild{})); err != nil {
		t.Fatal(err)
	}

	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	res, err := chain.Resolve(ctx, "./plain.ts", hook.ResolveContext{ParentURL: "file:///main.js"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := chain.Load(ctx, res.URL, hook.LoadContext{Format: res.Format, Dialect: res.Dialect})
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Source) != "export const a = 1;\n" || out.Format != hook.FormatModule {
		t.Fatalf("result = %q (%s)", out.Source, out.Format)
	}

	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanEnd {
			names = append(names, ev.Name)
		}
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"resolve", "config", "transform", "load"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("span %q missing from %v", want, names)
		}
	}
}

func TestParseFailurePolicy(t *testing.T) {
	for in, want := range map[string]FailurePolicy{"": FailLoad, "fail": FailLoad, "RAW": FallbackRaw} {
		got, err := ParseFailurePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseFailurePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFailurePolicy("ignore"); err == nil {
		t.Fatal("expected error")
	}
}
