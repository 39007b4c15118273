package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tsxload/internal/diag"
	"tsxload/internal/dialect"
)

const watchDebounce = 150 * time.Millisecond

// watchCheck re-runs the check whenever a module or a config file under the
// watched paths changes, until interrupted.
func watchCheck(ctx context.Context, cmd *cobra.Command, sess *session, bag *diag.Bag, opts checkOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	// a full-screen view per round would wipe the previous report
	opts.ui = uiModeOff

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck
	for _, p := range opts.paths {
		if err := addSourceDirs(w, p); err != nil {
			return err
		}
	}

	trigger := make(chan string, 1)
	notify := func(name string) {
		select {
		case trigger <- name:
		default:
		}
	}
	sess.configs.OnInvalidate = notify

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.configs.Watch(gctx) })
	g.Go(func() error { return forwardSourceEvents(gctx, w, notify) })
	g.Go(func() error {
		stderr := cmd.ErrOrStderr()
		for {
			bag.Reset()
			if _, err := checkOnce(gctx, cmd, sess, bag, opts); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			fmt.Fprintln(stderr, "watching for changes (ctrl+c to stop)")

			select {
			case <-gctx.Done():
				return nil
			case name := <-trigger:
				settle(gctx, trigger)
				fmt.Fprintf(stderr, "\n%s changed, re-checking\n", name)
			}
		}
	})
	return g.Wait()
}

// settle waits until no further change arrives for watchDebounce.
func settle(ctx context.Context, trigger <-chan string) {
	timer := time.NewTimer(watchDebounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			timer.Reset(watchDebounce)
		case <-timer.C:
			return
		}
	}
}

func forwardSourceEvents(ctx context.Context, w *fsnotify.Watcher, notify func(string)) error {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&relevant == 0 {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addSourceDirs(w, ev.Name) //nolint:errcheck
					continue
				}
			}
			if (dialect.Classifier{}).Path(filepath.ToSlash(ev.Name)).Transformable() {
				notify(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

// addSourceDirs watches root (or its directory when root is a file) and
// every directory below it except dot directories and node_modules.
func addSourceDirs(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		name := d.Name()
		if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
