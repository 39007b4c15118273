// Package host is a minimal filesystem module host. It provides the
// innermost resolve and load steps of a hook chain and a Runner that drives
// one specifier through resolve and then load, the way a module system does
// before executing a module.
package host
