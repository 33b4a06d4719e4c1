package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPatronaError_Error(t *testing.T) {
	err := New(ErrCategoryStorage, CodeUploadFailed, "upload failed")
	expected := "[STORAGE:UPLOAD_FAILED] upload failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestPatronaError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryIngest, CodeSourceUnavailable, "fetch failed", cause)
	expected := "[INGEST:SOURCE_UNAVAILABLE] fetch failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestPatronaError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryPrediction, CodeServiceUnavailable, "predict", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestPatronaError_Is(t *testing.T) {
	err1 := New(ErrCategoryStorage, CodeUploadFailed, "first")
	err2 := New(ErrCategoryStorage, CodeUploadFailed, "second")
	err3 := New(ErrCategoryStorage, CodeDownloadFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeDownloadFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategoryPrediction, CodeServiceUnavailable, true},
		{ErrCategoryPrediction, CodeBadPrediction, false},
		{ErrCategoryIngest, CodeUnparseableSource, false},
		{ErrCategoryNormalize, CodeInvalidDate, false},
		{ErrCategoryAnalytics, CodeNoSnapshot, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryIngest, CodeUnparseableSource, "bad csv")
	if GetCategory(err) != ErrCategoryIngest {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryIngest)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-PatronaError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryIngest, CodeUnparseableSource, "bad csv")
	if GetCode(err) != CodeUnparseableSource {
		t.Errorf("got %q, want %q", GetCode(err), CodeUnparseableSource)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-PatronaError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	base := New(ErrCategoryNormalize, CodeInvalidDate, "unparseable date")
	detailed := base.WithDetails(map[string]interface{}{"raw": "13/45/99"})
	if base.Details != nil {
		t.Error("WithDetails must not mutate the original error")
	}
	if detailed.Details["raw"] != "13/45/99" {
		t.Errorf("details not attached: %v", detailed.Details)
	}
}
