package checkrun

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"tsxload/internal/dialect"
)

// CollectFiles expands paths into the sorted list of files to check.
// Directories are walked for files the classifier recognises; dot
// directories and node_modules are skipped. Files named explicitly are
// kept whatever their extension.
func CollectFiles(paths []string, classifier dialect.Classifier) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if path == abs || classifier.Path(filepath.ToSlash(path)).Transformable() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func skipDir(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// DisplayPath shortens p relative to base for progress output.
func DisplayPath(p, base string) string {
	if base == "" {
		return p
	}
	rel, err := filepath.Rel(base, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
