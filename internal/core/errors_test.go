// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	err := WrapError(ErrInvalidParameter, errors.New("window must be >= 2"))
	want := "[INVALID_PARAMETER] invalid parameter: window must be >= 2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrDegenerateSeries, ErrDegenerateSeries) {
		t.Error("same error should match")
	}
	if errors.Is(ErrDegenerateSeries, ErrInsufficientData) {
		t.Error("different codes should not match")
	}
}

func TestError_IsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("aligning: %w", Errorf(ErrInsufficientData, "got %d points", 5))
	if !errors.Is(err, ErrInsufficientData) {
		t.Error("expected match through fmt wrapping")
	}

	var coreErr *Error
	if !errors.As(err, &coreErr) {
		t.Fatal("expected errors.As to find *Error")
	}
	if coreErr.Cause == nil || coreErr.Cause.Error() != "got 5 points" {
		t.Errorf("unexpected cause: %v", coreErr.Cause)
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrCollectorFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrCollectorFailed.Code {
		t.Error("code not preserved")
	}
}
