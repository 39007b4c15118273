package config

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Locator maps the location of a requesting module to the transform
// configuration that applies to the modules it imports. location may be nil
// when the requester is unknown.
type Locator interface {
	Locate(ctx context.Context, location *url.URL) (*Config, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, location *url.URL) (*Config, error)

func (f LocatorFunc) Locate(ctx context.Context, location *url.URL) (*Config, error) {
	return f(ctx, location)
}

// Static returns a Locator that always yields cfg.
func Static(cfg Config) Locator {
	return LocatorFunc(func(context.Context, *url.URL) (*Config, error) {
		return &cfg, nil
	})
}

// FileLocator discovers config files on the local filesystem.
type FileLocator struct {
	// Root is where lookups start when the location is unknown or not a
	// file URL. Empty means the working directory.
	Root string
}

// Locate implements Locator.
func (l FileLocator) Locate(ctx context.Context, location *url.URL) (*Config, error) {
	cfg, _, err := l.locateDir(ctx, l.StartDir(location))
	return cfg, err
}

// StartDir returns the directory a lookup for location begins in.
func (l FileLocator) StartDir(location *url.URL) string {
	if location == nil || location.Scheme != "file" || location.Path == "" {
		if l.Root != "" {
			return l.Root
		}
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	p := filepath.FromSlash(location.Path)
	if strings.HasSuffix(location.Path, "/") {
		return filepath.Clean(p)
	}
	return filepath.Dir(p)
}

func (l FileLocator) locateDir(ctx context.Context, dir string) (*Config, Discovery, error) {
	if err := ctx.Err(); err != nil {
		return nil, Discovery{}, err
	}
	d, err := Discover(dir)
	if err != nil {
		return nil, d, err
	}
	if !d.Found() {
		cfg := Default()
		return &cfg, d, nil
	}
	cfg, err := LoadFile(d.Path)
	return cfg, d, err
}
