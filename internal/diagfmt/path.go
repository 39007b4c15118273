package diagfmt

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DisplayPath renders a module URL for humans. Non-file URLs are returned
// unchanged whatever the mode.
func DisplayPath(rawURL string, mode PathMode, baseDir string) string {
	if mode == PathModeURL {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return rawURL
	}
	p := filepath.FromSlash(u.Path)

	switch mode {
	case PathModeAbsolute:
		return p
	case PathModeBasename:
		return filepath.Base(p)
	case PathModeRelative, PathModeAuto:
		if baseDir == "" {
			return p
		}
		rel, err := filepath.Rel(baseDir, p)
		if err != nil {
			return p
		}
		if mode == PathModeAuto && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return p
		}
		return rel
	default:
		return p
	}
}
