// Package errors provides structured error types for the Patrona engine.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryIngest     ErrorCategory = "INGEST"
	ErrCategoryNormalize  ErrorCategory = "NORMALIZE"
	ErrCategoryAnalytics  ErrorCategory = "ANALYTICS"
	ErrCategoryPrediction ErrorCategory = "PREDICTION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Ingest codes. Ingest errors are fatal to the run: no partial
	// snapshot is ever produced from a source that failed to load.
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeUnparseableSource = "UNPARSEABLE_SOURCE"
	CodeMissingHeader     = "MISSING_HEADER"

	// Normalize codes. These classify recovered data-quality defects;
	// they are counted, never raised.
	CodeInvalidNumber = "INVALID_NUMBER"
	CodeInvalidDate   = "INVALID_DATE"
	CodeMissingField  = "MISSING_FIELD"

	// Analytics codes
	CodeNoSnapshot = "NO_SNAPSHOT"

	// Prediction codes
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeBadPrediction      = "BAD_PREDICTION"

	// Storage codes
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeUploadFailed   = "UPLOAD_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// PatronaError is the structured error type used throughout the system.
type PatronaError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *PatronaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *PatronaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *PatronaError) Is(target error) bool {
	var t *PatronaError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new PatronaError.
func New(category ErrorCategory, code, message string) *PatronaError {
	return &PatronaError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new PatronaError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *PatronaError {
	return &PatronaError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PatronaError) WithDetails(details map[string]interface{}) *PatronaError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var pe *PatronaError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a PatronaError.
func GetCategory(err error) ErrorCategory {
	var pe *PatronaError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a PatronaError.
func GetCode(err error) string {
	var pe *PatronaError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Transient transport
// failures retry; everything else surfaces immediately.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryPrediction && code == CodeServiceUnavailable:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewIngestError(code, message string, cause error) *PatronaError {
	return Wrap(ErrCategoryIngest, code, message, cause)
}

func NewNormalizeError(code, message string) *PatronaError {
	return New(ErrCategoryNormalize, code, message)
}

func NewAnalyticsError(code, message string) *PatronaError {
	return New(ErrCategoryAnalytics, code, message)
}

func NewPredictionError(code, message string, cause error) *PatronaError {
	return Wrap(ErrCategoryPrediction, code, message, cause)
}

func NewStorageError(code, message string, cause error) *PatronaError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *PatronaError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
