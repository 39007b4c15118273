package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tsxload/internal/hook"
)

var (
	// ErrUnsupportedSpecifier is returned for bare (package) specifiers.
	ErrUnsupportedSpecifier = errors.New("unsupported specifier")
	// ErrModuleNotFound is returned when no probed file exists.
	ErrModuleNotFound = errors.New("module not found")
)

// ProbeExtensions is the order in which extensions are tried for a
// specifier without one. The empty string tries the path as written.
var ProbeExtensions = []string{"", ".tsx", ".ts", ".jsx", ".mts", ".mjs", ".js"}

// FS resolves and loads modules from the local filesystem.
type FS struct {
	// Root anchors relative specifiers that have no parent. Empty means the
	// working directory.
	Root string
	// Extensions overrides ProbeExtensions.
	Extensions []string
}

// Resolve maps a specifier to a file URL. It is shaped like hook.NextResolve
// so it can terminate a chain.
func (h *FS) Resolve(ctx context.Context, specifier string, rctx hook.ResolveContext) (hook.ResolveResult, error) {
	if err := ctx.Err(); err != nil {
		return hook.ResolveResult{}, err
	}
	if strings.HasPrefix(specifier, "node:") {
		return hook.ResolveResult{URL: specifier, Format: hook.FormatBuiltin}, nil
	}

	target, err := h.targetPath(specifier, rctx.ParentURL)
	if err != nil {
		return hook.ResolveResult{}, err
	}
	found, ok := h.probe(target)
	if !ok {
		return hook.ResolveResult{}, fmt.Errorf("resolve %q: %w", specifier, ErrModuleNotFound)
	}
	return hook.ResolveResult{URL: FileURL(found), Format: FormatForPath(found)}, nil
}

// Load reads the file behind a file URL. It is shaped like hook.NextLoad.
func (h *FS) Load(ctx context.Context, moduleURL string, lctx hook.LoadContext) (hook.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return hook.LoadResult{}, err
	}
	p, err := PathFromURL(moduleURL)
	if err != nil {
		return hook.LoadResult{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return hook.LoadResult{}, fmt.Errorf("load %s: %w", moduleURL, ErrModuleNotFound)
		}
		return hook.LoadResult{}, fmt.Errorf("load %s: %w", moduleURL, err)
	}
	format := lctx.Format
	if format == hook.FormatNone {
		format = FormatForPath(p)
	}
	return hook.LoadResult{Format: format, Source: data}, nil
}

func (h *FS) targetPath(specifier, parentURL string) (string, error) {
	if strings.HasPrefix(specifier, "file:") {
		return PathFromURL(specifier)
	}
	if filepath.IsAbs(specifier) {
		return filepath.Clean(specifier), nil
	}
	if !isRelative(specifier) {
		return "", fmt.Errorf("%q: %w", specifier, ErrUnsupportedSpecifier)
	}

	base := h.Root
	if parentURL != "" {
		parent, err := PathFromURL(parentURL)
		if err != nil {
			return "", fmt.Errorf("parent of %q: %w", specifier, err)
		}
		base = filepath.Dir(parent)
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = wd
	}
	return filepath.Join(base, filepath.FromSlash(specifier)), nil
}

func (h *FS) probe(target string) (string, bool) {
	exts := h.Extensions
	if exts == nil {
		exts = ProbeExtensions
	}
	for _, ext := range exts {
		if isFile(target + ext) {
			return target + ext, true
		}
	}
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		candidate := filepath.Join(target, "index"+ext)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// FormatForPath is the format hint the host attaches by extension. Dialect
// files are plain modules to the host; the interceptor retags them.
func FormatForPath(p string) hook.Format {
	switch path.Ext(filepath.ToSlash(p)) {
	case ".cjs":
		return hook.FormatCommonJS
	case ".json":
		return hook.FormatJSON
	case ".wasm":
		return hook.FormatWasm
	default:
		return hook.FormatModule
	}
}

// FileURL converts an absolute filesystem path to a file URL.
func FileURL(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	slashed := filepath.ToSlash(p)
	if !strings.HasPrefix(slashed, "/") {
		// drive-letter paths
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String()
}

// DirURL returns the file URL of directory dir with a trailing slash. It is
// the parent an entry module is imported from.
func DirURL(dir string) string {
	u := FileURL(dir)
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// PathFromURL converts a file URL to a filesystem path.
func PathFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%q is not a file url: %w", raw, ErrUnsupportedSpecifier)
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}
