// Package errors provides standardized error records for the scrape run lifecycle.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeWorkerTimeout       ErrorCode = "WORKER_TIMEOUT"
	ErrCodeWorkerScrapeFailed  ErrorCode = "WORKER_SCRAPE_FAILED"
	ErrCodeWorkerOpenFailed    ErrorCode = "WORKER_OPEN_FAILED"
	ErrCodeItemRejected        ErrorCode = "ITEM_REJECTED"
	ErrCodeNormalizationFailed ErrorCode = "NORMALIZATION_FAILED"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeVisionUnavailable   ErrorCode = "VISION_UNAVAILABLE"
	ErrCodeSinkWriteFailed     ErrorCode = "SINK_WRITE_FAILED"
)

// StandardError represents a structured application error.
//
// None of these codes are fatal at the run level: worker failures are
// isolated to their worker, item-level failures drop the single item, and
// infrastructure failures degrade to in-memory fallbacks.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewWorkerTimeoutError records a scrape phase that outlived its deadline.
func NewWorkerTimeoutError(store string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkerTimeout,
		Message:   "Worker scrape phase timed out",
		Details:   fmt.Sprintf("store: %s", store),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkerScrapeFailedError records a transient scrape failure.
func NewWorkerScrapeFailedError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkerScrapeFailed,
		Message:   "Worker scrape failed",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkerOpenFailedError records a worker that could not initialize.
func NewWorkerOpenFailedError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkerOpenFailed,
		Message:   "Worker initialization failed",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewItemRejectedError records a pipeline stage dropping a single item.
func NewItemRejectedError(stage, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeItemRejected,
		Message:   "Item rejected by validation pipeline",
		Details:   fmt.Sprintf("stage: %s, reason: %s", stage, reason),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNormalizationFailedError records a malformed raw item.
func NewNormalizationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNormalizationFailed,
		Message:   "Raw item could not be normalized",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError records a cache backend falling back to memory.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Verification cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVisionUnavailableError records a classification call that failed open.
func NewVisionUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVisionUnavailable,
		Message:   "Image classification unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSinkWriteFailedError records a failed run record write.
func NewSinkWriteFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSinkWriteFailed,
		Message:   "Run record write failed",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsWorkerScoped reports whether the error is isolated to one worker.
func IsWorkerScoped(code ErrorCode) bool {
	switch code {
	case ErrCodeWorkerTimeout, ErrCodeWorkerScrapeFailed, ErrCodeWorkerOpenFailed:
		return true
	}
	return false
}

// IsItemScoped reports whether the error drops a single item only.
func IsItemScoped(code ErrorCode) bool {
	return code == ErrCodeItemRejected || code == ErrCodeNormalizationFailed
}
