// Package bridge carries the requester location of a module from its resolve
// hook to its load hook.
//
// The host does not forward the importing module's URL to the load phase, so
// the resolve hook records it here keyed by the module's own resolved URL and
// the load hook takes it back out with the URL it is asked to load. Keying by
// identity means any interleaving of resolves and loads of different modules
// reads the right entry.
//
// Hooks that run after the interceptor may still rewrite the URL the host
// later loads (a cache-busting query, say). Claim therefore retries without
// query and fragment and, failing that, falls back to the requester of the
// most recent resolve, which is what a single shared slot would hold.
package bridge

import (
	"net/url"
	"strings"
	"sync"
)

// Match says how Claim found a requester.
type Match uint8

const (
	MatchNone     Match = iota // nothing was ever recorded
	MatchExact                 // entry keyed by the loaded URL
	MatchStripped              // entry keyed by the loaded URL minus query and fragment
	MatchLast                  // requester of the most recent resolve
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchStripped:
		return "stripped"
	case MatchLast:
		return "last"
	default:
		return "none"
	}
}

// Requesters maps a resolved module URL to the location of the module that
// requested it. The zero value is ready to use.
type Requesters struct {
	mu      sync.Mutex
	pending map[string]*url.URL
	last    *url.URL
	hasLast bool
}

// Record stores requester for resolved, replacing any earlier entry. A nil
// requester is stored as-is so the load phase can tell "entry point" from
// "never resolved".
func (r *Requesters) Record(resolved string, requester *url.URL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		r.pending = make(map[string]*url.URL)
	}
	r.pending[resolved] = requester
	r.last, r.hasLast = requester, true
}

// Take returns and removes the requester recorded for resolved.
func (r *Requesters) Take(resolved string) (*url.URL, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	requester, ok := r.pending[resolved]
	if ok {
		delete(r.pending, resolved)
	}
	return requester, ok
}

// Claim returns the requester for a module being loaded from loaded. It
// takes the exact entry, then the entry for loaded without its query and
// fragment, and otherwise reports the most recently recorded requester
// without removing anything.
func (r *Requesters) Claim(loaded string) (*url.URL, Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester, ok := r.pending[loaded]; ok {
		delete(r.pending, loaded)
		return requester, MatchExact
	}
	if base := stripQuery(loaded); base != loaded {
		if requester, ok := r.pending[base]; ok {
			delete(r.pending, base)
			return requester, MatchStripped
		}
	}
	if r.hasLast {
		return r.last, MatchLast
	}
	return nil, MatchNone
}

func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Len reports the number of modules resolved but not yet loaded.
func (r *Requesters) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
