package loader

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what Load returns after a transform failed and its
// diagnostics were reported.
type FailurePolicy uint8

const (
	// FailLoad fails the load with an error wrapping ErrTranspile.
	FailLoad FailurePolicy = iota
	// FallbackRaw returns the untransformed source as the module.
	FallbackRaw
)

func (p FailurePolicy) String() string {
	switch p {
	case FailLoad:
		return "fail"
	case FallbackRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy converts a flag value to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return FailLoad, nil
	case "raw":
		return FallbackRaw, nil
	default:
		return FailLoad, fmt.Errorf("invalid failure policy %q (expected fail|raw)", s)
	}
}
