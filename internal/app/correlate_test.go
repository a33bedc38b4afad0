package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/correlation"
	"github.com/newthinker/pairscope/internal/pipeline"
)

// withNoise adds an unrelated ticker to the PEP/KO mock.
func withNoise(p *mockProvider, symbol string) *mockProvider {
	base := p.history["PEP"].Points
	pts := make([]core.PricePoint, len(base))
	for i, pt := range base {
		pts[i] = core.PricePoint{Date: pt.Date, Close: 30 + float64(i%7), Valid: true}
	}
	p.history[symbol] = core.PriceSeries{Symbol: symbol, Points: pts}
	return p
}

func TestApp_CompleteCorrelation(t *testing.T) {
	defaults := testDefaults()
	defaults.Universe = []string{"PEP", "KO"}
	a := New(newMockProvider(10), pipeline.DefaultConfig(), defaults, WithClock(fixedClock))

	req := a.CompleteCorrelation(correlation.Request{})
	assert.Equal(t, []string{"PEP", "KO"}, req.Tickers)
	assert.Equal(t, defaults.Start, req.Start)
	assert.Equal(t, core.Day(fixedClock()), req.End)
	assert.Equal(t, correlation.BasisPrices, req.Basis)

	req = a.CompleteCorrelation(correlation.Request{Tickers: []string{" xom", "cvx"}, Basis: correlation.BasisReturns})
	assert.Equal(t, []string{"XOM", "CVX"}, req.Tickers)
	assert.Equal(t, correlation.BasisReturns, req.Basis)

	// the universe is not aliased
	req.Tickers[0] = "ZZZ"
	assert.Equal(t, []string{"PEP", "KO"}, a.CompleteCorrelation(correlation.Request{}).Tickers)
}

func TestApp_Correlate(t *testing.T) {
	provider := withNoise(newMockProvider(150), "NOISE")
	a := New(provider, pipeline.DefaultConfig(), testDefaults(), WithClock(fixedClock))

	r, err := a.Correlate(context.Background(), correlation.Request{Tickers: []string{"pep", "ko", "noise"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"PEP", "KO", "NOISE"}, r.Symbols)
	assert.ElementsMatch(t, []string{"PEP", "KO", "NOISE"}, provider.calls)
	require.NotNil(t, r.MostCorrelated)
	assert.Equal(t, "PEP", r.MostCorrelated.Symbol1)
	assert.Equal(t, "KO", r.MostCorrelated.Symbol2)
	assert.Greater(t, r.MostCorrelated.Correlation, 0.9)
	assert.Len(t, r.Pairs, 3)
	assert.Equal(t, "2023-07-02", r.End)
}

func TestApp_Correlate_DefaultUniverse(t *testing.T) {
	defaults := testDefaults()
	defaults.Universe = []string{"PEP", "KO"}
	provider := newMockProvider(150)
	a := New(provider, pipeline.DefaultConfig(), defaults, WithClock(fixedClock))

	r, err := a.Correlate(context.Background(), correlation.Request{Basis: correlation.BasisReturns})
	require.NoError(t, err)
	assert.Equal(t, []string{"PEP", "KO"}, r.Symbols)
	assert.Equal(t, correlation.BasisReturns, r.Basis)
}

func TestApp_Correlate_Errors(t *testing.T) {
	provider := newMockProvider(150)
	a := New(provider, pipeline.DefaultConfig(), testDefaults(), WithClock(fixedClock))

	_, err := a.Correlate(context.Background(), correlation.Request{Tickers: []string{"PEP"}})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	assert.Empty(t, provider.calls, "invalid requests never reach the provider")

	_, err = a.Correlate(context.Background(), correlation.Request{Tickers: []string{"PEP", "KO", "NOPE"}})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	assert.ErrorIs(t, err, core.ErrSymbolNotFound)
}
