package providers

import (
	"errors"
	"net/http"

	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
)

// Provider adapter errors.
var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// errorCodeTypes maps OpenAI error codes, which name the specific reason,
// to an ErrorType. llama-server puts the HTTP status in code instead, so
// its replies never match here.
var errorCodeTypes = map[string]llmerrors.ErrorType{
	"insufficient_quota":      llmerrors.ErrorTypeQuota,
	"rate_limit_exceeded":     llmerrors.ErrorTypeRateLimit,
	"invalid_api_key":         llmerrors.ErrorTypeAuth,
	"context_length_exceeded": llmerrors.ErrorTypeValidation,
	"model_not_found":         llmerrors.ErrorTypeValidation,
}

// errorTypeNames maps the error.type strings of both backends.
// llama-server uses the *_error family; OpenAI reports rate limits as
// "requests" or "tokens" and quota exhaustion as "insufficient_quota".
var errorTypeNames = map[string]llmerrors.ErrorType{
	"authentication_error":      llmerrors.ErrorTypeAuth,
	"permission_error":          llmerrors.ErrorTypePermission,
	"invalid_request_error":     llmerrors.ErrorTypeValidation,
	"exceed_context_size_error": llmerrors.ErrorTypeValidation,
	"not_found_error":           llmerrors.ErrorTypeValidation,
	"not_supported_error":       llmerrors.ErrorTypeValidation,
	"unavailable_error":         llmerrors.ErrorTypeProvider,
	"server_error":              llmerrors.ErrorTypeProvider,
	"requests":                  llmerrors.ErrorTypeRateLimit,
	"tokens":                    llmerrors.ErrorTypeRateLimit,
	"insufficient_quota":        llmerrors.ErrorTypeQuota,
}

// classifyErrorType picks an ErrorType from an error envelope, trying the
// code, then the type, then the HTTP status.
func classifyErrorType(statusCode int, errType, code string) llmerrors.ErrorType {
	if t, ok := errorCodeTypes[code]; ok {
		return t
	}
	if t, ok := errorTypeNames[errType]; ok {
		return t
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return llmerrors.ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized:
		return llmerrors.ErrorTypeAuth
	case statusCode == http.StatusForbidden:
		return llmerrors.ErrorTypePermission
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return llmerrors.ErrorTypeTimeout
	case statusCode == http.StatusBadRequest:
		return llmerrors.ErrorTypeValidation
	case statusCode >= http.StatusInternalServerError:
		return llmerrors.ErrorTypeProvider
	default:
		return llmerrors.ErrorTypeUnknown
	}
}
