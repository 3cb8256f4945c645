package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// LLM error codes follow the Axiom8 structured error pattern.
const (
	ErrProviderNotFound     types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderUnavailable  types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited  types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrInvalidRequest       types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrCompletionFailed     types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrTimeoutExceeded      types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrNetworkFailed        types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var axiomErr *types.AxiomError
	if !errors.As(err, &axiomErr) {
		return false
	}

	if axiomErr.Retryable {
		return true
	}

	switch axiomErr.Code {
	case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable, ErrTimeoutExceeded:
		return true
	default:
		return false
	}
}

// NewAuthError creates an authentication error for a provider.
func NewAuthError(provider string, cause error) *types.AxiomError {
	return &types.AxiomError{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", provider),
		Cause:   cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting.
func NewRateLimitError(provider string) *types.AxiomError {
	return &types.AxiomError{
		Code:      ErrProviderRateLimited,
		Message:   "rate limit exceeded for provider: " + provider,
		Retryable: true,
	}
}

// NewTimeoutError creates a retryable error for timeout failures.
func NewTimeoutError(message string) *types.AxiomError {
	return &types.AxiomError{
		Code:      ErrTimeoutExceeded,
		Message:   message,
		Retryable: true,
	}
}

// NewNetworkError creates a retryable error for network failures.
func NewNetworkError(message string, cause error) *types.AxiomError {
	return &types.AxiomError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewProviderUnavailableError creates a retryable error for a temporarily
// unavailable provider.
func NewProviderUnavailableError(provider string, cause error) *types.AxiomError {
	return &types.AxiomError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + provider,
		Retryable: true,
		Cause:     cause,
	}
}

// NewInvalidRequestError creates an error for invalid requests.
func NewInvalidRequestError(message string) *types.AxiomError {
	return types.NewError(ErrInvalidRequest, message)
}

// NewProviderError creates a generic provider error.
func NewProviderError(provider string, err error) error {
	if err == nil {
		return NewProviderUnavailableError(provider, fmt.Errorf("unknown error"))
	}
	return NewProviderUnavailableError(provider, err)
}

// TranslateError translates generic errors into Axiom8 errors based on error
// message content. Errors that are already structured pass through unchanged.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var axiomErr *types.AxiomError
	if errors.As(err, &axiomErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
