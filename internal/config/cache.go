package config

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// Cache memoises a FileLocator per start directory. Concurrent lookups of
// the same directory share one discovery.
type Cache struct {
	locator FileLocator
	lookup  func(ctx context.Context, dir string) (*Config, Discovery, error)

	// OnInvalidate, when set, is called after Watch drops the cache because
	// the named config file changed.
	OnInvalidate func(path string)

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*Config
	gen     uint64 // bumped by Invalidate; lookups started earlier are not stored
	dirs    map[string]struct{}
	watcher *fsnotify.Watcher
}

// NewCache wraps locator.
func NewCache(locator FileLocator) *Cache {
	return &Cache{
		locator: locator,
		lookup:  locator.locateDir,
		entries: make(map[string]*Config),
		dirs:    make(map[string]struct{}),
	}
}

// Locate implements Locator.
func (c *Cache) Locate(ctx context.Context, location *url.URL) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := c.locator.StartDir(location)

	c.mu.Lock()
	cfg, ok := c.entries[dir]
	c.mu.Unlock()
	if ok {
		return cfg, nil
	}

	gen := c.generation()
	v, err, _ := c.group.Do(dir, func() (any, error) {
		// Shared by every caller waiting on dir, so one caller's
		// cancellation must not fail the others.
		cfg, d, err := c.lookup(context.WithoutCancel(ctx), dir)
		c.remember(d.Searched)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[dir] = cfg
		}
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Invalidate drops every cached config.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.gen++
}

// Len returns the number of cached start directories.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) remember(dirs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, dir := range dirs {
		if _, seen := c.dirs[dir]; seen {
			continue
		}
		c.dirs[dir] = struct{}{}
		if c.watcher != nil {
			// Directories that vanish between discovery and here are not
			// worth failing a lookup over.
			_ = c.watcher.Add(dir) //nolint:errcheck
		}
	}
}

// Watch blocks until ctx is cancelled, dropping the cache whenever a config
// file is created, written, removed or renamed in any directory a lookup has
// consulted. Directories consulted after Watch starts are picked up as well.
func (c *Cache) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create fsnotify watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	c.mu.Lock()
	if c.watcher != nil {
		c.mu.Unlock()
		return fmt.Errorf("config: Watch already running")
	}
	c.watcher = w
	for dir := range c.dirs {
		_ = w.Add(dir) //nolint:errcheck
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.watcher = nil
		c.mu.Unlock()
	}()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&relevant == 0 || !IsConfigFile(ev.Name) {
				continue
			}
			c.Invalidate()
			if c.OnInvalidate != nil {
				c.OnInvalidate(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config: watch: %w", err)
		}
	}
}
