package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Axiom8 errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Session store error codes
const (
	SESSION_NOT_FOUND     ErrorCode = "SESSION_NOT_FOUND"
	SESSION_STORE_FAILED  ErrorCode = "SESSION_STORE_FAILED"
	SESSION_ENCODE_FAILED ErrorCode = "SESSION_ENCODE_FAILED"
)

// Retrieval gateway error codes
const (
	RETRIEVAL_UNKNOWN_BACKEND ErrorCode = "RETRIEVAL_UNKNOWN_BACKEND"
	RETRIEVAL_REQUEST_FAILED  ErrorCode = "RETRIEVAL_REQUEST_FAILED"
	RETRIEVAL_BAD_STATUS      ErrorCode = "RETRIEVAL_BAD_STATUS"
	RETRIEVAL_BAD_RESPONSE    ErrorCode = "RETRIEVAL_BAD_RESPONSE"
	RETRIEVAL_TIMEOUT         ErrorCode = "RETRIEVAL_TIMEOUT"
)

// Conversation stage error codes
const (
	STAGE_REQUIREMENTS_FAILED ErrorCode = "STAGE_REQUIREMENTS_FAILED"
	STAGE_GENERATION_FAILED   ErrorCode = "STAGE_GENERATION_FAILED"
)

// Boundary API error codes
const (
	API_INVALID_REQUEST ErrorCode = "API_INVALID_REQUEST"
	API_INTERNAL        ErrorCode = "API_INTERNAL"
)

// AxiomError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type AxiomError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *AxiomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *AxiomError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *AxiomError) Is(target error) bool {
	var axiomErr *AxiomError
	if errors.As(target, &axiomErr) {
		return e.Code == axiomErr.Code
	}
	return false
}

// NewError creates a new non-retryable AxiomError with the given code and message.
func NewError(code ErrorCode, message string) *AxiomError {
	return &AxiomError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable AxiomError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *AxiomError {
	return &AxiomError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable AxiomError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *AxiomError {
	return &AxiomError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// CodeOf extracts the ErrorCode from err, or returns the empty code when err
// is not an AxiomError.
func CodeOf(err error) ErrorCode {
	var axiomErr *AxiomError
	if errors.As(err, &axiomErr) {
		return axiomErr.Code
	}
	return ""
}
