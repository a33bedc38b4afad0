package collector

import (
	"context"
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Provider fetches daily closing prices for one symbol.
type Provider interface {
	Name() string

	// FetchHistory returns the daily closes of symbol between start and end,
	// both inclusive, ordered by date. Unknown symbols fail with
	// core.ErrSymbolNotFound.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error)
}

// Router is implemented by providers that dispatch each symbol to another
// provider.
type Router interface {
	Route(symbol string) (Provider, error)
}
