// Package ratelimit throttles calls into the completion backend.
//
// Two middlewares are provided. The rate limiter applies a token bucket per
// provider and model and blocks until a token is available or the caller's
// context ends. The inference gate bounds the number of completions in flight,
// which a single local model needs because it serves one request at a time.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// rateLimitMiddleware holds one token bucket per provider:model key.
type rateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   configuration.RateLimitConfig
	logger   *slog.Logger
}

// NewRateLimitMiddleware creates a transport.Middleware that waits for a
// token before forwarding each request. When disabled it returns a
// pass-through middleware.
//
// Waiting rather than rejecting keeps batch runs simple: a throttled request
// is delayed, never failed, unless its context expires first. In that case a
// RateLimitError wrapping the context error is returned.
func NewRateLimitMiddleware(cfg *configuration.RateLimitConfig) (transport.Middleware, error) {
	if err := validateRateLimitConfig(cfg); err != nil {
		return nil, err
	}

	if !cfg.Enabled || cfg.TokensPerSecond == 0 {
		return func(next transport.Handler) transport.Handler { return next }, nil
	}

	rlm := &rateLimitMiddleware{
		limiters: make(map[string]*rate.Limiter),
		config:   *cfg,
		logger:   slog.Default().With("component", "ratelimit"),
	}
	return rlm.middleware(), nil
}

func (r *rateLimitMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			key := buildKey(req)
			limiter := r.getOrCreateLimiter(key)

			start := time.Now()
			if err := limiter.Wait(ctx); err != nil {
				return nil, &llmerrors.RateLimitError{
					Provider: req.Provider,
					Limit:    r.config.TokensPerSecond,
					Wait:     time.Since(start),
					Cause:    err,
				}
			}
			if waited := time.Since(start); waited > time.Second {
				r.logger.DebugContext(ctx, "request throttled", "key", key, "waited", waited)
			}

			return next.Handle(ctx, req)
		})
	}
}

// getOrCreateLimiter returns the limiter for key, creating it on first use.
func (r *rateLimitMiddleware) getOrCreateLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[key]; ok {
		return limiter
	}

	burst := r.config.BurstSize
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(r.config.TokensPerSecond), burst)
	r.limiters[key] = limiter
	return limiter
}

// buildKey scopes limits to a provider and model.
func buildKey(req *transport.Request) string {
	return req.Provider + ":" + req.Model
}
