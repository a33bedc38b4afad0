package api

import (
	"context"
	"net/http"

	"github.com/newthinker/pairscope/internal/api/response"
	"github.com/newthinker/pairscope/internal/pipeline"
)

// ReportStore reads archived reports.
type ReportStore interface {
	List(ctx context.Context, ticker1, ticker2 string) ([]string, error)
	Load(ctx context.Context, key string) (pipeline.Report, error)
	Has(ctx context.Context, key string) (bool, error)
}

// ReportsHandler serves the report archive.
type ReportsHandler struct {
	store ReportStore
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store ReportStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// List returns the archived report keys, optionally filtered by pair.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keys, err := h.store.List(r.Context(), q.Get("ticker1"), q.Get("ticker2"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// Get returns one archived report.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.Load(r.Context(), r.PathValue("key"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Head answers 200 when the report exists and 404 otherwise, without a body.
func (h *ReportsHandler) Head(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.Has(r.Context(), r.PathValue("key"))
	switch {
	case err != nil:
		w.WriteHeader(response.StatusFor(err))
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}
