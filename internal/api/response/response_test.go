// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/pairscope/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"hello": "world"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.Errorf(core.ErrInsufficientData, "only %d aligned dates", 12)

	Error(w, http.StatusUnprocessableEntity, err)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INSUFFICIENT_DATA" {
		t.Errorf("expected INSUFFICIENT_DATA, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "only 12 aligned dates" {
		t.Errorf("unexpected cause %q", resp.Error.Cause)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusInternalServerError, errors.New("boom"))

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Errorf("internal errors must not leak their cause, got %q", resp.Error.Cause)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidParameter, http.StatusBadRequest},
		{core.ErrSymbolNotFound, http.StatusNotFound},
		{core.Errorf(core.ErrReportNotFound, "PEP-KO/x.json"), http.StatusNotFound},
		{core.ErrInsufficientData, http.StatusUnprocessableEntity},
		{core.ErrDegenerateSeries, http.StatusUnprocessableEntity},
		{core.ErrCollectorFailed, http.StatusBadGateway},
		{core.ErrCollectorTimeout, http.StatusGatewayTimeout},
		{fmt.Errorf("fetch: %w", core.ErrSymbolNotFound), http.StatusNotFound},
		{core.WrapError(core.ErrInvalidParameter, core.Errorf(core.ErrSymbolNotFound, "ZZZZ")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFromError(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, core.Errorf(core.ErrSymbolNotFound, "yahoo: ZZZZ"))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
