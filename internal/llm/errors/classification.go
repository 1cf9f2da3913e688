package errors

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Classify maps an error returned by the completion client to an ErrorType.
// Typed errors are checked first, then sentinels and standard library
// conditions, and finally message patterns for untyped errors.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Type
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) || errors.Is(err, ErrRateLimitExceeded) {
		return ErrorTypeRateLimit
	}

	if errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrNoChoices) {
		return ErrorTypeInvalidResponse
	}

	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetwork
	}

	return classifyMessage(err.Error())
}

// classifyMessage is the fallback for errors that carry no type information.
func classifyMessage(msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"),
		strings.Contains(lower, "connection reset"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}
