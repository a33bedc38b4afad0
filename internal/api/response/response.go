// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	// Unknown tickers are invalid parameters that still answer 404, so the
	// not-found check comes first.
	case errors.Is(err, core.ErrSymbolNotFound), errors.Is(err, core.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInsufficientData), errors.Is(err, core.ErrDegenerateSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrCollectorTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrCollectorFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status StatusFor assigns it.
func FromError(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
