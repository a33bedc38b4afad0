package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/correlation"
)

func TestBuildCorrelationRequest(t *testing.T) {
	req, err := buildCorrelationRequest([]string{"XOM", " ", "CVX"}, "2022-01-08", "2023-01-08", "returns")
	require.NoError(t, err)
	assert.Equal(t, []string{"XOM", "CVX"}, req.Tickers)
	assert.Equal(t, time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, correlation.BasisReturns, req.Basis)

	req, err = buildCorrelationRequest(nil, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, req.Tickers)
	assert.Equal(t, correlation.BasisPrices, req.Basis)

	_, err = buildCorrelationRequest(nil, "", "", "volume")
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = buildCorrelationRequest(nil, "2022/01/08", "", "")
	assert.Error(t, err)
}

func TestPrintCorrelation(t *testing.T) {
	r := correlation.Report{
		Start:   "2022-01-10",
		End:     "2023-01-06",
		Basis:   correlation.BasisPrices,
		Symbols: []string{"XOM", "CVX", "JPM"},
		Pairs: []correlation.Pair{
			{Symbol1: "XOM", Symbol2: "CVX", Correlation: 0.9621},
			{Symbol1: "CVX", Symbol2: "JPM", Correlation: 0.41},
			{Symbol1: "XOM", Symbol2: "JPM", Correlation: 0.38},
		},
	}

	var buf bytes.Buffer
	printCorrelation(&buf, r, 2)
	out := buf.String()

	assert.Contains(t, out, "3 tickers, prices")
	assert.Contains(t, out, "1. XOM")
	assert.Contains(t, out, "0.9621")
	assert.Contains(t, out, "0.4100")
	assert.NotContains(t, out, "0.3800")

	buf.Reset()
	printCorrelation(&buf, correlation.Report{Symbols: []string{"A", "B"}}, 10)
	assert.True(t, strings.Contains(buf.String(), "No pair"))
}
