package hook

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoHooks is returned by Register when the value implements neither
	// Resolver nor Loader.
	ErrNoHooks = errors.New("value implements neither Resolver nor Loader")
	// ErrEmptyURL is returned when a resolve chain produces no URL.
	ErrEmptyURL = errors.New("resolve produced an empty url")
)

// Chain composes registered hooks over the host's terminal resolve and load.
// It is safe for concurrent use; registration while a call is in flight
// affects only later calls.
type Chain struct {
	mu        sync.RWMutex
	resolvers []Resolver
	loaders   []Loader
	resolve   NextResolve
	load      NextLoad
}

// NewChain returns a chain whose innermost steps are resolve and load.
func NewChain(resolve NextResolve, load NextLoad) *Chain {
	return &Chain{resolve: resolve, load: load}
}

// Register adds h as a resolve hook, a load hook, or both.
func (c *Chain) Register(h any) error {
	r, isResolver := h.(Resolver)
	l, isLoader := h.(Loader)
	if !isResolver && !isLoader {
		return fmt.Errorf("register %T: %w", h, ErrNoHooks)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if isResolver {
		c.resolvers = append(c.resolvers, r)
	}
	if isLoader {
		c.loaders = append(c.loaders, l)
	}
	return nil
}

// Resolve runs specifier through the resolve chain.
func (c *Chain) Resolve(ctx context.Context, specifier string, rctx ResolveContext) (ResolveResult, error) {
	c.mu.RLock()
	resolvers := c.resolvers
	c.mu.RUnlock()

	next := c.resolve
	for _, r := range resolvers {
		inner, hook := next, r
		next = func(ctx context.Context, specifier string, rctx ResolveContext) (ResolveResult, error) {
			return hook.Resolve(ctx, specifier, rctx, inner)
		}
	}
	res, err := next(ctx, specifier, rctx)
	if err != nil {
		return ResolveResult{}, err
	}
	if res.URL == "" {
		return ResolveResult{}, fmt.Errorf("resolve %q: %w", specifier, ErrEmptyURL)
	}
	return res, nil
}

// Load runs url through the load chain.
func (c *Chain) Load(ctx context.Context, url string, lctx LoadContext) (LoadResult, error) {
	c.mu.RLock()
	loaders := c.loaders
	c.mu.RUnlock()

	next := c.load
	for _, l := range loaders {
		inner, hook := next, l
		next = func(ctx context.Context, url string, lctx LoadContext) (LoadResult, error) {
			return hook.Load(ctx, url, lctx, inner)
		}
	}
	return next(ctx, url, lctx)
}
