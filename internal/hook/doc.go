// Package hook defines the host hook protocol spoken between a module host
// and the interceptors registered with it.
//
// A host resolves a specifier to a module URL and later loads that URL. Each
// step runs through a chain of hooks; every hook receives a next function that
// continues the chain and may rewrite the input before calling it or the
// output after it returns. The last registered hook runs first and the host's
// own resolve and load run last.
//
// # Inter-phase protocol
//
// The only data the host carries from a resolve to the matching load is the
// resolved URL, the format tag and the dialect. Format is a host-visible
// string and may be inspected by any hook. Dialect is an explicit field that
// exists solely so a load hook can learn which source dialect its resolve hook
// saw; hosts copy it verbatim and never interpret it.
package hook
