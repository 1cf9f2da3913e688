package cache

import (
	"fmt"

	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

const (
	// Idempotency key constraints.
	maxIdempotencyKeyLength = 256
	minIdempotencyKeyLength = 8
)

// buildKey constructs the cache key "{prefix}:{operation}:{idemkey}" after
// validating the request fields it depends on.
func (c *cacheMiddleware) buildKey(req *transport.Request) (string, error) {
	if err := validateCacheKeyFields(req); err != nil {
		return "", fmt.Errorf("invalid request for cache key: %w", err)
	}

	return transport.CacheKey(c.prefix, req.Operation, transport.IdemKey(req.IdempotencyKey)), nil
}

// validateCacheKeyFields checks that a request carries a cacheable operation
// and an idempotency key of acceptable length.
func validateCacheKeyFields(req *transport.Request) error {
	if req.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required for caching")
	}

	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		return fmt.Errorf("idempotency key too long (max %d chars): %d", maxIdempotencyKeyLength, len(req.IdempotencyKey))
	}
	if len(req.IdempotencyKey) < minIdempotencyKeyLength {
		return fmt.Errorf("idempotency key too short (min %d chars): %d", minIdempotencyKeyLength, len(req.IdempotencyKey))
	}

	if req.Operation != transport.OpCompletion {
		return fmt.Errorf("invalid operation: %s", req.Operation)
	}

	return nil
}
