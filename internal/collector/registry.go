package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// Registry manages price providers and routes symbols to them
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	suffixes  map[string]string // upper-case symbol suffix -> provider name
	fallback  string
}

// NewRegistry creates a new provider registry. Symbols without a routed
// suffix go to the fallback provider.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		suffixes:  make(map[string]string),
		fallback:  fallback,
	}
}

// Register adds a provider, optionally routing exchange suffixes such as
// ".SH" to it.
func (r *Registry) Register(p Provider, suffixes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	for _, s := range suffixes {
		r.suffixes[strings.ToUpper(s)] = p.Name()
	}
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.providers))
	for name := range r.providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Route returns the provider responsible for symbol.
func (r *Registry) Route(symbol string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := r.fallback
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		if routed, ok := r.suffixes[strings.ToUpper(symbol[i:])]; ok {
			name = routed
		}
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("no provider registered for %s (wanted %q)", symbol, name)
	}
	return p, nil
}

// Name implements Provider.
func (r *Registry) Name() string {
	return "registry"
}

// FetchHistory implements Provider by delegating to the routed provider.
func (r *Registry) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	p, err := r.Route(symbol)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, err)
	}
	return p.FetchHistory(ctx, symbol, start, end)
}
