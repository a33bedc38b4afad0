// internal/api/handler/api/correlation.go
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/pairscope/internal/api/response"
	"github.com/newthinker/pairscope/internal/correlation"
)

// Correlator defines the universe correlation needed from app.App.
type Correlator interface {
	Correlate(ctx context.Context, req correlation.Request) (*correlation.Report, error)
}

// CorrelationHandler serves correlation matrices.
type CorrelationHandler struct {
	correlator Correlator
}

// NewCorrelationHandler creates a new correlation handler.
func NewCorrelationHandler(c Correlator) *CorrelationHandler {
	return &CorrelationHandler{correlator: c}
}

// Get correlates the comma-separated tickers query parameter, or the
// configured universe when it is absent.
func (h *CorrelationHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var req correlation.Request
	for _, t := range strings.Split(q.Get("tickers"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			req.Tickers = append(req.Tickers, t)
		}
	}

	var err error
	if req.Basis, err = correlation.ParseBasis(q.Get("basis")); err != nil {
		response.FromError(w, err)
		return
	}
	if req.Start, err = parseDate("start", q.Get("start")); err != nil {
		response.FromError(w, err)
		return
	}
	if req.End, err = parseDate("end", q.Get("end")); err != nil {
		response.FromError(w, err)
		return
	}

	report, err := h.correlator.Correlate(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}
