// Package errors defines the error taxonomy of the completion backend.
// Provider failures are captured as typed errors and classified so every
// failed call is logged and counted under a stable error_type.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType categorizes completion backend failures.
type ErrorType string

const (
	// ErrorTypeTimeout indicates request timeout or deadline exceeded.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates rate limit exceeded.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeNetwork indicates network connectivity issues.
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates provider service unavailable.
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeValidation indicates the backend rejected the request.
	ErrorTypeValidation ErrorType = "validation_failed"

	// ErrorTypeAuth indicates authentication failed.
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypePermission indicates insufficient permissions.
	ErrorTypePermission ErrorType = "permission_denied"

	// ErrorTypeQuota indicates account quota exceeded.
	ErrorTypeQuota ErrorType = "quota_exceeded"

	// ErrorTypeInvalidResponse indicates a malformed provider response.
	ErrorTypeInvalidResponse ErrorType = "invalid_response"

	// ErrorTypeCanceled indicates the caller canceled the request.
	ErrorTypeCanceled ErrorType = "canceled"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common completion errors for consistent error handling.
var (
	// ErrUnknownProvider indicates an unknown or unsupported provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidResponse indicates the provider returned an invalid response.
	ErrInvalidResponse = errors.New("invalid provider response")

	// ErrNoChoices indicates a completion response without any choice.
	ErrNoChoices = errors.New("completion response has no choices")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ProviderError captures structured error responses from completion providers.
type ProviderError struct {
	Provider   string    `json:"provider"`    // Provider name
	StatusCode int       `json:"status_code"` // HTTP status code
	Message    string    `json:"message"`     // Error message
	Code       string    `json:"code"`        // Provider error code
	Type       ErrorType `json:"type"`        // Classified error type
}

// Error returns formatted provider error with status code context.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimitError is returned when the local limiter cannot admit a request
// before the caller's deadline.
type RateLimitError struct {
	Provider string        `json:"provider"`
	Limit    float64       `json:"limit"`
	Wait     time.Duration `json:"wait"`
	Cause    error         `json:"-"`
}

// Error returns formatted rate limit error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (%.2f req/s): %v", e.Provider, e.Limit, e.Cause)
}

// Unwrap exposes ErrRateLimitExceeded and the limiter's cause.
func (e *RateLimitError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRateLimitExceeded}
	}
	return []error{ErrRateLimitExceeded, e.Cause}
}
