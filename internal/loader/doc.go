// Package loader implements the resolve and load interceptors that let a
// module host execute JSX and TSX sources.
//
// Resolve lets the rest of the chain resolve a specifier, classifies the
// final URL by extension, tags dialect modules with a jsx or tsx format and
// records who imported them. Load recognises those tags, fetches the raw
// text from the rest of the chain, looks up the transform config that applies
// to the importer, optionally prepends the React namespace import, and hands
// the text to the transform engine. Every other module passes through both
// hooks untouched.
//
// Transform failures are written to the error stream one block per
// diagnostic. What Load returns afterwards is governed by FailurePolicy.
package loader
