package diag

import "fmt"

// Code identifies the kind of a diagnostic.
type Code uint16

const (
	UnknownCode Code = 0
	// Transform engine output.
	TranspileError   Code = 1001
	TranspileWarning Code = 1002
	// Failures around the transform, reported by the check driver.
	ConfigError  Code = 2001
	ResolveError Code = 2002
	LoadError    Code = 2003
)

var codeNames = map[Code]string{
	UnknownCode:      "UnknownError",
	TranspileError:   "TranspileError",
	TranspileWarning: "TranspileWarning",
	ConfigError:      "ConfigError",
	ResolveError:     "ResolveError",
	LoadError:        "LoadError",
}

// String returns the name printed in front of a diagnostic.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("E%04d", uint16(c))
}

// ID returns the compact identifier, e.g. "TSX1001".
func (c Code) ID() string {
	return fmt.Sprintf("TSX%04d", uint16(c))
}
