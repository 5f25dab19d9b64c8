// Package errors provides standardized error handling for the recommendation engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Guard refusals. Always recoverable, surfaced as a polite refusal to the
	// caller and never logged as a caller error.
	ErrCodeValidationRejected ErrorCode = "VALIDATION_REJECTED"

	// Missing profile or candidate. Recoverable, ends the run gracefully.
	ErrCodeProfileNotFound   ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeCandidateNotFound ErrorCode = "CANDIDATE_NOT_FOUND"

	// External collaborator failures. Recoverable at the step level; the
	// orchestrator records them and continues to Done.
	ErrCodeExternalTimeout      ErrorCode = "EXTERNAL_TIMEOUT"
	ErrCodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Fatal to the run, not the process.
	ErrCodeIterationLimitExceeded ErrorCode = "ITERATION_LIMIT_EXCEEDED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCachePersistenceFailed   ErrorCode = "CACHE_PERSISTENCE_FAILED"
)

// StandardError represents a structured application error.
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

// NewValidationRejectedError creates a non-retryable guard refusal.
// The reason is the guard's rejection reason ("not-read-only",
// "forbidden-keyword", "cross-tenant-access").
func NewValidationRejectedError(reason, query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationRejected,
		Message:   "Query rejected by read-only guard",
		Details:   fmt.Sprintf("reason: %s", reason),
		Retryable: false,
		Metadata:  map[string]interface{}{"reason": reason, "query": query},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable missing-profile error.
func NewProfileNotFoundError(callerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Client profile not found",
		Details:   fmt.Sprintf("callerId: %s", callerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateNotFoundError creates a non-retryable missing-candidate error.
func NewCandidateNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate venue not found",
		Details:   fmt.Sprintf("name: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalTimeoutError creates a retryable timeout error for an
// external collaborator call.
func NewExternalTimeoutError(service string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalTimeout,
		Message:   "External service call timed out",
		Details:   fmt.Sprintf("service: %s", service),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable external service error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalServiceError,
		Message:   "External service call failed",
		Details:   fmt.Sprintf("service: %s, error: %s", service, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIterationLimitExceededError creates a run-fatal iteration ceiling error.
func NewIterationLimitExceededError(limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeIterationLimitExceeded,
		Message:   "Tool invocation ceiling exceeded for this run",
		Details:   fmt.Sprintf("limit: %d", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCachePersistenceFailedError creates a retryable cache index persistence error.
func NewCachePersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCachePersistenceFailed,
		Message:   "Cache index persistence error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns an empty code when err carries no StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRecoverable reports whether the run can continue to a degraded reply
// after this error. Only the iteration ceiling is fatal to a run.
func IsRecoverable(err error) bool {
	return CodeOf(err) != ErrCodeIterationLimitExceeded
}

// IsTimeout reports whether err is a distinguishable external timeout.
func IsTimeout(err error) bool {
	return CodeOf(err) == ErrCodeExternalTimeout
}

// IsNotFound reports whether err is a profile or candidate absence.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeProfileNotFound || code == ErrCodeCandidateNotFound
}
