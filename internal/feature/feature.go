// Package feature evaluates feature flags stored in the database.
//
// Flags are loaded at most once per scope. A scope is opened with WithCache:
// the HTTP layer opens one per request and the task worker one per task, so
// concurrent requests never share or reset each other's view of the flags.
// Lookups outside a scope read the store every time.
package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/marginalia/internal/platform/logger"
)

// FilterGroupsByScope switches the groups listing to scope-aware filtering.
const FilterGroupsByScope = "filter_groups_by_scope"

// ErrUnknownFeature is returned for flags that do not exist in the store.
var ErrUnknownFeature = errors.New("unknown feature")

// Flag is one row of the features table.
type Flag struct {
	Name     string
	Everyone bool
	Admins   bool
}

// Store loads flag definitions.
type Store interface {
	All(ctx context.Context) ([]Flag, error)
}

// Checker is the read side of Client, for consumers that only need to ask.
type Checker interface {
	Enabled(ctx context.Context, name string) (bool, error)
	EnabledOrFalse(ctx context.Context, name string) bool
}

type cacheKey struct{}

// cache holds the flags loaded within one scope.
type cache struct {
	mu    sync.Mutex
	flags map[string]Flag
}

// WithCache returns a context carrying a fresh, empty flag cache.
func WithCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey{}, &cache{})
}

// Client evaluates flags.
type Client struct {
	store  Store
	logger *slog.Logger

	mu        sync.RWMutex
	overrides map[string]bool
}

// NewClient creates a Client backed by store.
func NewClient(store Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:     store,
		logger:    logger.With("component", "feature_client"),
		overrides: make(map[string]bool),
	}
}

// Enabled reports whether the flag is on for everyone. Overrides win over
// stored values.
func (c *Client) Enabled(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	on, ok := c.overrides[name]
	c.mu.RUnlock()
	if ok {
		return on, nil
	}

	flags, err := c.flags(ctx)
	if err != nil {
		return false, err
	}

	flag, ok := flags[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownFeature, name)
	}
	return flag.Everyone, nil
}

// EnabledOrFalse is Enabled with errors logged and treated as off.
func (c *Client) EnabledOrFalse(ctx context.Context, name string) bool {
	on, err := c.Enabled(ctx, name)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("feature lookup failed", "feature", name, "error", err)
		return false
	}
	return on
}

// Override pins a flag to a value regardless of the store.
func (c *Client) Override(name string, on bool) {
	c.mu.Lock()
	c.overrides[name] = on
	c.mu.Unlock()
}

func (c *Client) flags(ctx context.Context) (map[string]Flag, error) {
	sc, ok := ctx.Value(cacheKey{}).(*cache)
	if !ok {
		return c.load(ctx)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.flags == nil {
		flags, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		sc.flags = flags
	}
	return sc.flags, nil
}

func (c *Client) load(ctx context.Context) (map[string]Flag, error) {
	flags, err := c.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature flags: %w", err)
	}
	out := make(map[string]Flag, len(flags))
	for _, f := range flags {
		out[f.Name] = f
	}
	c.logger.Debug("loaded feature flags", "count", len(flags))
	return out, nil
}
