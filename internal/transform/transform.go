// Package transform defines the Transform Engine contract and its
// implementations.
//
// An engine rewrites the source of one module into executable JavaScript.
// It either returns code plus optional warnings, or fails with an *Error that
// lists structured diagnostics in the order the engine produced them. Any
// other error means the engine itself could not run.
package transform

import (
	"context"
	"fmt"

	"tsxload/internal/config"
	"tsxload/internal/dialect"
)

// Location points at the source text a message is about. Line is 1-based,
// Column is a 0-based byte offset into LineText.
type Location struct {
	File     string
	Line     int
	Column   int
	LineText string
}

// Message is a single engine diagnostic.
type Message struct {
	Text     string
	Location *Location
}

// Request is one module to transform.
type Request struct {
	Source  string
	URL     string
	Dialect dialect.Kind
	Config  *config.Config
}

// Result is a successful transform.
type Result struct {
	Code     string
	Warnings []Message
}

// Error is a transform that failed with diagnostics. Warnings the engine
// produced alongside the errors are kept.
type Error struct {
	Errors   []Message
	Warnings []Message
}

func (e *Error) Error() string {
	switch len(e.Errors) {
	case 0:
		return "transform failed"
	case 1:
		return "transform failed: " + e.Errors[0].Text
	default:
		return fmt.Sprintf("transform failed with %d errors: %s", len(e.Errors), e.Errors[0].Text)
	}
}

// Engine transforms module source.
type Engine interface {
	Transform(ctx context.Context, req Request) (Result, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request) (Result, error)

func (f EngineFunc) Transform(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
