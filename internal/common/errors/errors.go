// Package errors provides the standardized error model for the decision
// engine and its BPMN workflow integration.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized engine error codes. Every failure
// leaving a worker is one of these; raw collaborator errors are wrapped
// before they cross the boundary.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	ErrCodeIndeterminate    ErrorCode = "INDETERMINATE"
)

// StandardError represents a structured engine error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// Error Constructors
// ==========================

// NewInvalidInput reports malformed or out-of-domain arguments.
func NewInvalidInput(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFound reports an absent referenced entity.
func NewNotFound(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewConflict reports a violated uniqueness invariant.
func NewConflict(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConflict,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidOperation reports a request rejected by a domain rule.
func NewInvalidOperation(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOperation,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndeterminate reports an external call whose outcome is unknown after
// a timeout. The operation must not be assumed to have succeeded or failed,
// and must not be blindly retried.
func NewIndeterminate(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndeterminate,
		Message:   fmt.Sprintf("outcome of '%s' is unknown", operation),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// Wrap converts a collaborator failure into a StandardError of the given
// code, preserving the cause for errors.Is/As.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Classification
// ==========================

// CodeOf extracts the engine error code, or empty if err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given engine error code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// FromContextErr maps a context failure during an external write to
// Indeterminate. Cancellation before the call is a plain timeout condition
// for the caller; after a write was issued the outcome is unknowable.
func FromContextErr(operation string, err error) *StandardError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewIndeterminate(operation, err)
	}
	return Wrap(ErrCodeIndeterminate, fmt.Sprintf("'%s' failed without a conclusive outcome", operation), err)
}

// HTTPStatus maps an engine error code to the equivalent transport status
// of the logical request/response contract.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidOperation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeIndeterminate:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// BPMN Error Integration
// ==========================

// BPMNError represents an error thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail
// variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// The engine never retries on its own; referral settlement and upgrade are
// not idempotent, so retries is always zero and any retry policy belongs
// to the workflow.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
		Retries: 0,
		ErrorVariables: map[string]interface{}{
			"timestamp": stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
