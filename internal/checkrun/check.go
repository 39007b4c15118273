package checkrun

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"tsxload/internal/diag"
	"tsxload/internal/hook"
	"tsxload/internal/host"
	"tsxload/internal/loader"
	"tsxload/internal/trace"
)

// Request configures one check run.
type Request struct {
	// Files are absolute entry paths, usually from CollectFiles.
	Files []string
	// BaseDir shortens file names in progress events.
	BaseDir string
	Jobs    int
	Chain   *hook.Chain
	// Bag receives resolve and load failures. Transform diagnostics reach
	// it through the interceptor's reporter.
	Bag      *diag.Bag
	Progress ProgressSink
}

// Check resolves and loads every file concurrently. Failures of single
// files are recorded in the results and the bag; only cancellation aborts
// the run.
func Check(ctx context.Context, req Request) ([]FileResult, Summary, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check")
	start := time.Now()
	results := make([]FileResult, len(req.Files))

	names := make([]string, len(req.Files))
	for i, f := range req.Files {
		names[i] = DisplayPath(f, req.BaseDir)
		emit(req.Progress, Event{File: names[i], Stage: StageResolve, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Files))))
	for i, path := range req.Files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// indices are unique per goroutine
			results[i] = checkOne(gctx, req, path, names[i])
			if errors.Is(results[i].Err, context.Canceled) {
				return results[i].Err
			}
			return nil
		})
	}
	err := g.Wait()

	sum := Summary{Files: len(results), Elapsed: time.Since(start)}
	for _, r := range results {
		if !r.OK() {
			sum.Failed++
		}
	}
	status := StatusDone
	if sum.Failed > 0 || err != nil {
		status = StatusError
	}
	emit(req.Progress, Event{Stage: StageLoad, Status: status, Err: err, Elapsed: sum.Elapsed})
	span.End(string(status))
	return results, sum, err
}

func checkOne(ctx context.Context, req Request, path, name string) FileResult {
	start := time.Now()
	res := FileResult{Path: path, Stage: StageResolve}

	emit(req.Progress, Event{File: name, Stage: StageResolve, Status: StatusWorking})
	resolved, err := req.Chain.Resolve(ctx, path, hook.ResolveContext{ParentURL: host.DirURL(filepath.Dir(path))})
	if err != nil {
		return fail(req, res, name, diag.ResolveError, path, err, start)
	}
	res.URL = resolved.URL

	res.Stage = StageLoad
	emit(req.Progress, Event{File: name, Stage: StageLoad, Status: StatusWorking})
	loaded, err := req.Chain.Load(ctx, resolved.URL, hook.LoadContext{Format: resolved.Format, Dialect: resolved.Dialect})
	if err != nil {
		code := diag.LoadError
		switch {
		case errors.Is(err, loader.ErrTranspile):
			// already reported diagnostic by diagnostic
			code = diag.UnknownCode
		case errors.Is(err, loader.ErrConfig):
			code = diag.ConfigError
		}
		return fail(req, res, name, code, resolved.URL, err, start)
	}

	res.Bytes = len(loaded.Source)
	res.Elapsed = time.Since(start)
	emit(req.Progress, Event{File: name, Stage: StageLoad, Status: StatusDone, Elapsed: res.Elapsed})
	return res
}

func fail(req Request, res FileResult, name string, code diag.Code, where string, err error, start time.Time) FileResult {
	res.Err = err
	res.Elapsed = time.Since(start)
	if req.Bag != nil && code != diag.UnknownCode && !errors.Is(err, context.Canceled) {
		req.Bag.Add(diag.FromError(code, where, err))
	}
	emit(req.Progress, Event{File: name, Stage: res.Stage, Status: StatusError, Err: err, Elapsed: res.Elapsed})
	return res
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
