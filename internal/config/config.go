// Package config discovers and decodes per-project transform configuration.
//
// A project opts into custom settings by placing tsxload.toml (or
// tsxload.yaml / tsxload.yml) in any directory above its sources. The file
// nearest to the requesting module wins; keys it does not set keep their
// defaults. Config values handed out by a Locator are shared and must be
// treated as read-only.
package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// JSXMode selects how JSX syntax is rewritten.
type JSXMode string

const (
	// JSXTransform rewrites JSX into React.createElement calls. The output
	// refers to a React namespace it does not import.
	JSXTransform JSXMode = "transform"
	// JSXAutomatic rewrites JSX into calls imported from the jsx runtime.
	JSXAutomatic JSXMode = "automatic"
	// JSXPreserve leaves JSX untouched.
	JSXPreserve JSXMode = "preserve"
)

// OutputFormat is the module style of transformed code.
type OutputFormat string

const (
	FormatESM      OutputFormat = "esm"
	FormatCommonJS OutputFormat = "cjs"
)

// SourcemapMode controls source map emission.
type SourcemapMode string

const (
	SourcemapNone   SourcemapMode = "none"
	SourcemapInline SourcemapMode = "inline"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid transform config")

// Config describes how a module's source is transformed.
type Config struct {
	JSX             JSXMode           `toml:"jsx" yaml:"jsx"`
	JSXFactory      string            `toml:"jsx_factory,omitempty" yaml:"jsx_factory"`
	JSXFragment     string            `toml:"jsx_fragment,omitempty" yaml:"jsx_fragment"`
	JSXImportSource string            `toml:"jsx_import_source,omitempty" yaml:"jsx_import_source"`
	JSXDev          bool              `toml:"jsx_dev" yaml:"jsx_dev"`
	Format          OutputFormat      `toml:"format" yaml:"format"`
	Target          string            `toml:"target" yaml:"target"`
	Sourcemap       SourcemapMode     `toml:"sourcemap" yaml:"sourcemap"`
	Loader          string            `toml:"loader,omitempty" yaml:"loader"` // overrides the loader picked from the dialect
	Minify          bool              `toml:"minify" yaml:"minify"`
	Define          map[string]string `toml:"define,omitempty" yaml:"define"`
	TsconfigRaw     string            `toml:"tsconfig_raw,omitempty" yaml:"tsconfig_raw"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// Default returns the configuration used when no config file applies.
func Default() Config {
	return Config{
		JSX:       JSXAutomatic,
		Format:    FormatESM,
		Target:    "esnext",
		Sourcemap: SourcemapInline,
	}
}

// InjectsReact reports whether transformed code references a React namespace
// that the source must import itself.
func (c *Config) InjectsReact() bool {
	return c != nil && c.JSX == JSXTransform
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Define = maps.Clone(c.Define)
	return &out
}

var validLoaders = []string{"", "js", "jsx", "ts", "tsx"}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.JSX {
	case JSXTransform, JSXAutomatic, JSXPreserve:
	default:
		return fmt.Errorf("%w: jsx %q (expected transform|automatic|preserve)", ErrInvalidConfig, c.JSX)
	}
	switch c.Format {
	case FormatESM, FormatCommonJS:
	default:
		return fmt.Errorf("%w: format %q (expected esm|cjs)", ErrInvalidConfig, c.Format)
	}
	switch c.Sourcemap {
	case SourcemapNone, SourcemapInline:
	default:
		return fmt.Errorf("%w: sourcemap %q (expected none|inline)", ErrInvalidConfig, c.Sourcemap)
	}
	if !slices.Contains(validLoaders, c.Loader) {
		return fmt.Errorf("%w: loader %q (expected js|jsx|ts|tsx)", ErrInvalidConfig, c.Loader)
	}
	if c.Target == "" {
		return fmt.Errorf("%w: empty target", ErrInvalidConfig)
	}
	return nil
}
