// internal/api/handler/api/analysis_test.go
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairscope/internal/api/response"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/pipeline"
)

// stubAnalyzer records the request and analyses a synthetic pair.
type stubAnalyzer struct {
	got pipeline.Request
	err error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Bundle, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	if req.Window == 0 {
		req.Window = 20
	}
	if req.StdMultiplier == 0 {
		req.StdMultiplier = 1.75
	}
	req.Start, req.End = time.Time{}, time.Time{}
	return pipeline.Analyze(pipeline.DefaultConfig(), req, synthetic(req.Ticker1, 0), synthetic(req.Ticker2, 1))
}

func synthetic(symbol string, phase float64) core.PriceSeries {
	day0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]core.PricePoint, 80)
	for i := range pts {
		v := 100 + 8*math.Sin(float64(i)/5+phase) + float64(i%7)*0.3
		pts[i] = core.PricePoint{Date: day0.AddDate(0, 0, i), Close: v, Valid: true}
	}
	return core.PriceSeries{Symbol: symbol, Points: pts}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func TestAnalysisHandler_Get(t *testing.T) {
	stub := &stubAnalyzer{}
	handler := NewAnalysisHandler(stub)

	req := httptest.NewRequest("GET", "/api/v1/analysis?ticker1=PEP&ticker2=KO&start=2023-01-01&end=2023-12-31&std=1.5&window=10", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PEP", stub.got.Ticker1)
	assert.Equal(t, 1.5, stub.got.StdMultiplier)
	assert.Equal(t, 10, stub.got.Window)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), stub.got.End)

	data := decode(t, w)
	assert.Equal(t, "PEP", data["ticker1"])
	assert.Contains(t, data, "cointegration")
	assert.Contains(t, data, "adf")
	series := data["series"].(map[string]any)
	assert.Contains(t, series, "upper_band")
	assert.Contains(t, series, "static_cumulative")
}

func TestAnalysisHandler_Get_WithoutSeries(t *testing.T) {
	handler := NewAnalysisHandler(&stubAnalyzer{})

	req := httptest.NewRequest("GET", "/api/v1/analysis?ticker1=PEP&ticker2=KO&series=false", nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)
	assert.Nil(t, data["series"])
	assert.Contains(t, data, "strategies")
}

func TestAnalysisHandler_Get_BadParameters(t *testing.T) {
	tests := []string{
		"/api/v1/analysis?ticker1=PEP&ticker2=KO&std=wide",
		"/api/v1/analysis?ticker1=PEP&ticker2=KO&window=ten",
		"/api/v1/analysis?ticker1=PEP&ticker2=KO&start=01/02/2023",
		"/api/v1/analysis?ticker1=PEP&ticker2=KO&series=maybe",
	}

	for _, url := range tests {
		stub := &stubAnalyzer{}
		w := httptest.NewRecorder()
		NewAnalysisHandler(stub).Get(w, httptest.NewRequest("GET", url, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Empty(t, stub.got.Ticker1, "analyzer must not run for %s", url)
	}
}

func TestAnalysisHandler_Post(t *testing.T) {
	stub := &stubAnalyzer{}
	body := `{"ticker1":"PEP","ticker2":"KO","std":2,"window":15,"series":false}`

	req := httptest.NewRequest("POST", "/api/v1/analysis", strings.NewReader(body))
	w := httptest.NewRecorder()
	NewAnalysisHandler(stub).Post(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2.0, stub.got.StdMultiplier)
	assert.Equal(t, 15, stub.got.Window)
}

func TestAnalysisHandler_Post_BadBody(t *testing.T) {
	for _, body := range []string{`{`, `{"ticker1":"PEP","colour":"red"}`} {
		w := httptest.NewRecorder()
		NewAnalysisHandler(&stubAnalyzer{}).Post(w, httptest.NewRequest("POST", "/api/v1/analysis", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestAnalysisHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{core.Errorf(core.ErrSymbolNotFound, "ZZZZ"), http.StatusNotFound, "SYMBOL_NOT_FOUND"},
		{core.Errorf(core.ErrInsufficientData, "12 dates"), http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{core.Errorf(core.ErrDegenerateSeries, "constant"), http.StatusUnprocessableEntity, "DEGENERATE_SERIES"},
		{core.Errorf(core.ErrCollectorFailed, "503"), http.StatusBadGateway, "COLLECTOR_FAILED"},
		{core.Errorf(core.ErrCollectorTimeout, "slow"), http.StatusGatewayTimeout, "COLLECTOR_TIMEOUT"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewAnalysisHandler(&stubAnalyzer{err: tt.err}).Get(w,
			httptest.NewRequest("GET", "/api/v1/analysis?ticker1=PEP&ticker2=KO", nil))

		assert.Equal(t, tt.want, w.Code)
		var resp response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Error.Code)
	}
}
