package dialect

import (
	"fmt"
	"strings"
)

// Kind is the dialect tag attached to a resolved module.
type Kind uint8

const (
	Unclassified Kind = iota
	JSX
	TSX

	kindCount
)

func (k Kind) String() string {
	switch k {
	case JSX:
		return "jsx"
	case TSX:
		return "tsx"
	default:
		return "unclassified"
	}
}

func (k Kind) GoString() string {
	return fmt.Sprintf("dialect.Kind(%s)", k.String())
}

// Transformable reports whether modules of this dialect go through the
// transform engine.
func (k Kind) Transformable() bool {
	return k == JSX || k == TSX
}

// Format returns the host format tag that carries this dialect from
// resolution to load. Unclassified has no tag.
func (k Kind) Format() string {
	if !k.Transformable() {
		return ""
	}
	return k.String()
}

// FromFormat maps a host format tag back to a dialect.
func FromFormat(format string) Kind {
	switch strings.ToLower(format) {
	case "jsx":
		return JSX
	case "tsx":
		return TSX
	default:
		return Unclassified
	}
}
