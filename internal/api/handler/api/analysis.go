// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/pairscope/internal/api/response"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/pipeline"
)

// Analyzer defines the interface needed from app.App.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Bundle, error)
}

// AnalysisHandler handles pair analysis API requests.
type AnalysisHandler struct {
	analyzer Analyzer
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// analysisRequest is the wire form of a request. Dates are YYYY-MM-DD and
// empty fields take the server defaults.
type analysisRequest struct {
	Ticker1 string  `json:"ticker1"`
	Ticker2 string  `json:"ticker2"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Std     float64 `json:"std"`
	Window  int     `json:"window"`
	Series  *bool   `json:"series"`
}

// Get runs an analysis from query parameters.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := analysisRequest{
		Ticker1: q.Get("ticker1"),
		Ticker2: q.Get("ticker2"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
	}

	if v := q.Get("std"); v != "" {
		std, err := strconv.ParseFloat(v, 64)
		if err != nil {
			response.FromError(w, core.Errorf(core.ErrInvalidParameter, "std: %v", err))
			return
		}
		req.Std = std
	}
	if v := q.Get("window"); v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			response.FromError(w, core.Errorf(core.ErrInvalidParameter, "window: %v", err))
			return
		}
		req.Window = window
	}
	if v := q.Get("series"); v != "" {
		withSeries, err := strconv.ParseBool(v)
		if err != nil {
			response.FromError(w, core.Errorf(core.ErrInvalidParameter, "series: %v", err))
			return
		}
		req.Series = &withSeries
	}

	h.run(w, r, req)
}

// Post runs an analysis from a JSON body.
func (h *AnalysisHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.FromError(w, core.Errorf(core.ErrInvalidParameter, "decoding body: %v", err))
		return
	}
	h.run(w, r, req)
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, wire analysisRequest) {
	req, err := wire.toRequest()
	if err != nil {
		response.FromError(w, err)
		return
	}

	bundle, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	withSeries := wire.Series == nil || *wire.Series
	response.JSON(w, http.StatusOK, bundle.Report(withSeries))
}

func (a analysisRequest) toRequest() (pipeline.Request, error) {
	req := pipeline.Request{
		Ticker1:       a.Ticker1,
		Ticker2:       a.Ticker2,
		StdMultiplier: a.Std,
		Window:        a.Window,
	}
	var err error
	if req.Start, err = parseDate("start", a.Start); err != nil {
		return req, err
	}
	if req.End, err = parseDate("end", a.End); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, core.WrapError(core.ErrInvalidParameter, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, v))
	}
	return t, nil
}
