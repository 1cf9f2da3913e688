package ratelimit

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
)

// ErrNilConfig indicates a missing rate limit configuration.
var ErrNilConfig = errors.New("rate limit config is nil")

// validateRateLimitConfig ensures limiter parameters are usable.
// BurstSize must be 0 when TokensPerSecond is 0.
func validateRateLimitConfig(cfg *configuration.RateLimitConfig) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if cfg.MaxConcurrentInference < 0 {
		return fmt.Errorf("invalid rate limit: MaxConcurrentInference cannot be negative (got %d)", cfg.MaxConcurrentInference)
	}
	if !cfg.Enabled {
		return nil
	}

	if cfg.TokensPerSecond < 0 {
		return fmt.Errorf("invalid rate limit: TokensPerSecond cannot be negative (got %f)", cfg.TokensPerSecond)
	}
	if cfg.BurstSize < 0 {
		return fmt.Errorf("invalid rate limit: BurstSize cannot be negative (got %d)", cfg.BurstSize)
	}
	if cfg.TokensPerSecond == 0 && cfg.BurstSize > 0 {
		return fmt.Errorf("invalid rate limit: BurstSize must be 0 when TokensPerSecond is 0")
	}

	return nil
}
