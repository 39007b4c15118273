package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// FileNames lists config file names in lookup order within one directory.
var FileNames = []string{"tsxload.toml", "tsxload.yaml", "tsxload.yml"}

// IsConfigFile reports whether name is one of FileNames.
func IsConfigFile(name string) bool {
	return slices.Contains(FileNames, filepath.Base(name))
}

// Discovery is the outcome of a walk from a start directory to the nearest
// config file.
type Discovery struct {
	Path     string   // config file path, empty when none was found
	Searched []string // directories consulted, nearest first
}

// Found reports whether a config file was found.
func (d Discovery) Found() bool {
	return d.Path != ""
}

// Discover walks up from startDir to locate the nearest config file.
func Discover(startDir string) (Discovery, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Discovery{}, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	var d Discovery
	for {
		d.Searched = append(d.Searched, dir)
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				d.Path = candidate
				return d, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return d, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return d, nil
}
