package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // failures only, reported from the ring at exit
	LevelHook                // driver runs and resolve/load boundaries
	LevelDetail              // plus config lookup and transform per module
	LevelDebug               // everything, engine internals included
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelHook:   "hook",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level, ignoring case.
func ParseLevel(s string) (Level, error) {
	lower := strings.ToLower(s)
	for l, name := range levelNames {
		if name == lower {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|hook|detail|debug)", s)
}

// Accepts reports whether a tracer at this level records ev. Heartbeats are
// always kept and failed span ends are kept at every level but off.
func (l Level) Accepts(ev *Event) bool {
	if l == LevelOff {
		return false
	}
	return ev.Kind == KindHeartbeat || ev.Failed() || l.ShouldEmit(ev.Scope)
}

// ShouldEmit reports whether events of scope are recorded at this level.
// At LevelError spans run quietly and only their failed ends are recorded.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelHook:
		return scope <= ScopeHook
	case LevelDetail:
		return scope <= ScopeModule
	case LevelDebug:
		return true
	default:
		return false
	}
}
