package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairscope/internal/pipeline"
	"github.com/newthinker/pairscope/internal/storage/archive"
)

func newReportsMux(t *testing.T) (*http.ServeMux, string) {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	reports := archive.NewReports(store)

	key, err := reports.Save(context.Background(), pipeline.Report{
		Ticker1: "PEP", Ticker2: "KO", Start: "2023-01-02", End: "2023-03-22",
		Window: 20, StdMultiplier: 1.75, Cointegrated: true,
	})
	require.NoError(t, err)

	h := NewReportsHandler(reports)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/reports", h.List)
	mux.HandleFunc("GET /api/v1/reports/{key...}", h.Get)
	mux.HandleFunc("HEAD /api/v1/reports/{key...}", h.Head)
	return mux, key
}

func TestReportsHandler_List(t *testing.T) {
	mux, key := newReportsMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports?ticker1=PEP&ticker2=KO", nil))
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)
	assert.Equal(t, []any{key}, data["keys"])

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports?ticker1=PEP", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportsHandler_Get(t *testing.T) {
	mux, key := newReportsMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+key, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)
	assert.Equal(t, "PEP", data["ticker1"])
	assert.Equal(t, true, data["cointegrated"])

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/PEP_KO/missing.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestReportsHandler_Head(t *testing.T) {
	mux, key := newReportsMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/v1/reports/"+key, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/v1/reports/PEP_KO/missing.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportsHandler_ListRejectsPathTickers(t *testing.T) {
	mux, _ := newReportsMux(t)

	for _, q := range []string{
		"ticker1=..&ticker2=/../../../../..",
		"ticker1=PEP&ticker2=..%2F..%2Fetc",
		"ticker1=PEP&ticker2=KO%5C..",
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}
