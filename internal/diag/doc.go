// Package diag defines the diagnostic model shared by the interceptors and
// the CLI.
//
// # Purpose
//
//   - Carry transform engine messages (errors and warnings) together with the
//     URL of the module they belong to.
//   - Offer Reporter implementations that route diagnostics to the error
//     stream, the warning stream, or an in-memory Bag.
//
// # Stream format
//
// StreamReporter writes one block per error diagnostic to its error stream:
//
//	TranspileError: <message>
//	    at <url>:<line>:<column>
//	    at: <source line>
//
// Line and column are printed exactly as the engine reported them. When the
// engine names no position the block is just the first two lines with the bare
// URL. Warnings are written to the warning stream one message per line.
//
// # Scope
//
// Package diag performs no colouring or pretty printing; those live in
// internal/diagfmt.
package diag
