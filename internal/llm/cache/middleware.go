// Package cache provides Redis-based caching middleware for completion
// responses. Completions are requested at temperature zero, so an identical
// exchange yields an identical answer and rerunning a batch after a crash can
// be served from Redis. An atomic check-and-lease prevents two workers from
// computing the same completion, and Redis failures degrade to a bypass.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

const (
	// Redis connection defaults.
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second

	// Cache operation defaults.
	leaseTimeout       = 2 * time.Minute
	retryCheckInterval = 250 * time.Millisecond
	cleanupTimeout     = 5 * time.Second
)

// cacheMiddleware implements Redis-based caching for completion responses.
// All operations are thread-safe.
type cacheMiddleware struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	enabled bool

	logger *slog.Logger
	gauges GaugeSink

	// Metrics counters accessed atomically.
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// NewCacheMiddlewareWithRedis creates a caching middleware for completions.
// If client is nil and caching is enabled, a client is created from cfg.
// Connection failures disable caching rather than failing construction.
// Hit, miss, error and pool gauges go to gauges when it is non-nil.
func NewCacheMiddlewareWithRedis(
	ctx context.Context,
	cfg configuration.CacheConfig,
	client *redis.Client,
	gauges GaugeSink,
) (transport.Middleware, error) {
	cm, err := newCacheMiddleware(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	cm.gauges = gauges
	return cm.middleware(), nil
}

func newCacheMiddleware(ctx context.Context, cfg configuration.CacheConfig, client *redis.Client) (*cacheMiddleware, error) {
	logger := slog.Default().With("component", "cache")

	if client == nil && cfg.Enabled {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: defaultPoolSize,
		})

		timeoutCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
		defer cancel()

		if err := client.Ping(timeoutCtx).Err(); err != nil {
			logger.Warn("Redis connection failed, cache disabled", "addr", cfg.RedisAddr, "error", err)
			cfg.Enabled = false
		}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = configuration.DefaultCacheTTL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = configuration.DefaultCacheKeyPrefix
	}

	return &cacheMiddleware{
		client:  client,
		ttl:     ttl,
		prefix:  prefix,
		enabled: cfg.Enabled,
		logger:  logger,
	}, nil
}

// middleware returns the transport.Middleware that intercepts requests.
func (c *cacheMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if !c.enabled || c.client == nil {
				return next.Handle(ctx, req)
			}

			defer c.publish()

			key, keyErr := c.buildKey(req)
			if keyErr != nil {
				c.logger.Warn("cache key validation failed", "error", keyErr)
				return next.Handle(ctx, req)
			}

			leaseKey := key + ":lease"
			status, cached, acquired, err := c.atomicCheckAndLease(ctx, key, leaseKey, leaseTimeout)

			switch status {
			case cacheHit:
				c.hits.Add(1)
				c.logger.DebugContext(ctx, "cache hit", "key", key, "provider", req.Provider, "model", req.Model)
				return cached, nil

			case leaseAcquired:
				c.misses.Add(1)

			case leaseFailed:
				c.misses.Add(1)
				if err == nil {
					// Another worker is computing this exchange; wait briefly once.
					select {
					case <-time.After(retryCheckInterval):
						if retryResp, retryErr := c.get(ctx, key); retryErr == nil && retryResp != nil {
							c.hits.Add(1)
							c.logger.DebugContext(ctx, "cache hit after lease wait", "key", key)
							return retryResp, nil
						}
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
			}

			if err != nil {
				c.errors.Add(1)
				c.logger.Warn("cache/lease operation error", "error", err, "key", key)
			}

			defer func() { //nolint:contextcheck // lease must be released after cancellation
				if !acquired {
					return
				}
				cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
				defer cancel()

				if delErr := c.client.Del(cleanupCtx, leaseKey).Err(); delErr != nil {
					c.logger.Warn("lease cleanup error", "error", delErr, "key", leaseKey)
				}
			}()

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			if cacheErr := c.set(ctx, key, resp, req); cacheErr != nil {
				c.errors.Add(1)
				c.logger.Warn("cache set error", "error", cacheErr, "key", key)
			}

			return resp, nil
		})
	}
}
