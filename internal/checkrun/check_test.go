package checkrun

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"tsxload/internal/config"
	"tsxload/internal/diag"
	"tsxload/internal/dialect"
	"tsxload/internal/host"
	"tsxload/internal/loader"
	"tsxload/internal/transform"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) statuses(file string) []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Status
	for _, e := range s.events {
		if e.File == file {
			out = append(out, e.Status)
		}
	}
	return out
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCollectFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.tsx":                 "",
		"src/b.ts":                  "",
		"src/c.js":                  "",
		"src/view.jsx":              "",
		"node_modules/pkg/index.ts": "",
		".cache/x.ts":               "",
		"lib/d.mts":                 "",
	})
	got, err := CollectFiles([]string{dir, filepath.Join(dir, "src", "c.js")}, dialect.Classifier{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range got {
		got[i], _ = filepath.Rel(dir, got[i])
		got[i] = filepath.ToSlash(got[i])
	}
	want := []string{"lib/d.mts", "src/a.tsx", "src/b.ts", "src/c.js", "src/view.jsx"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CollectFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckReportsPerFileOutcome(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"good.tsx": "export const n: number = 1;\n",
		"bad.ts":   "const a = ;\n",
	})
	bag := diag.NewBag(0)
	cfg := config.Default()
	cfg.Sourcemap = config.SourcemapNone
	runner, err := host.NewRunner(&host.FS{}, loader.New(config.Static(cfg), transform.Esbuild{}, loader.WithReporter(bag)))
	if err != nil {
		t.Fatal(err)
	}
	files, err := CollectFiles([]string{dir}, dialect.Classifier{})
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	results, sum, err := Check(context.Background(), Request{
		Files:    files,
		BaseDir:  dir,
		Jobs:     2,
		Chain:    runner.Chain(),
		Bag:      bag,
		Progress: sink,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Files != 2 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	byName := map[string]FileResult{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	if !byName["good.tsx"].OK() || byName["good.tsx"].Bytes == 0 {
		t.Fatalf("good.tsx = %+v", byName["good.tsx"])
	}
	if bad := byName["bad.ts"]; bad.OK() || bad.Stage != StageLoad {
		t.Fatalf("bad.ts = %+v", bad)
	}

	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.TranspileError || !items[0].HasPos || items[0].Line != 1 {
		t.Fatalf("bag = %+v", items)
	}

	want := []Status{StatusQueued, StatusWorking, StatusWorking, StatusDone}
	if diff := cmp.Diff(want, sink.statuses("good.tsx")); diff != "" {
		t.Fatalf("good.tsx events (-want +got):\n%s", diff)
	}
	want = []Status{StatusQueued, StatusWorking, StatusWorking, StatusError}
	if diff := cmp.Diff(want, sink.statuses("bad.ts")); diff != "" {
		t.Fatalf("bad.ts events (-want +got):\n%s", diff)
	}
}

func TestCheckRecordsResolveAndConfigFailures(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": "export {};\n"})
	bag := diag.NewBag(0)
	broken := config.LocatorFunc(func(context.Context, *url.URL) (*config.Config, error) {
		return nil, config.ErrInvalidConfig
	})
	runner, err := host.NewRunner(&host.FS{}, loader.New(broken, transform.Esbuild{}, loader.WithReporter(bag)))
	if err != nil {
		t.Fatal(err)
	}
	results, sum, err := Check(context.Background(), Request{
		Files: []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "missing.ts")},
		Chain: runner.Chain(),
		Bag:   bag,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 2 || results[0].Stage != StageLoad || results[1].Stage != StageResolve {
		t.Fatalf("results = %+v", results)
	}
	codes := []diag.Code{}
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if diff := cmp.Diff([]diag.Code{diag.ConfigError, diag.ResolveError}, codes, cmpopts.SortSlices(func(a, b diag.Code) bool { return a < b })); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestCheckHonoursCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeTree(t, map[string]string{"a.ts": "export {};\n", "b.ts": "export {};\n"})
	runner, err := host.NewRunner(&host.FS{}, loader.New(config.Static(config.Default()), transform.Esbuild{}))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Check(ctx, Request{
		Files: []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")},
		Chain: runner.Chain(),
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "x", Status: StatusDone})
	if got := <-ch; got.File != "x" || got.Status != StatusDone {
		t.Fatalf("got %+v", got)
	}
	ChannelSink{}.OnEvent(Event{})
}
