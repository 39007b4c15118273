package trace

import (
	"strings"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeDriver covers CLI commands and the check driver.
	ScopeDriver Scope = iota + 1
	// ScopeHook covers a single resolve or load interception.
	ScopeHook
	// ScopeModule covers work done for one module inside a hook
	// (config lookup, transform).
	ScopeModule
	ScopeEngine // engine internals, debug only
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeHook:
		return "hook"
	case ScopeModule:
		return "module"
	case ScopeEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID (for concurrent spans)
	Name     string            // e.g., "resolve", "load", "transform"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
	Dur      time.Duration     // span length, end events only
}

// Failed reports whether ev closes a span that ended in an error.
func (ev *Event) Failed() bool {
	return ev.Kind == KindSpanEnd && strings.Contains(ev.Detail, "error")
}
