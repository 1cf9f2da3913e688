// Package llm provides the text-completion client shared by every agent.
//
// A Client turns a domain.ChatExchange into a normalized transport.Request
// carrying the configured generation parameters, and sends it through a
// middleware chain:
//
//	logging -> cache -> rate limit -> inference gate -> HTTP
//
// Cache hits never wait for an inference slot. The inference gate serializes
// completions when the backend is a single local model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-groundqa/internal/domain"
	"github.com/ahrav/go-groundqa/internal/llm/cache"
	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	"github.com/ahrav/go-groundqa/internal/llm/providers"
	"github.com/ahrav/go-groundqa/internal/llm/ratelimit"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// ErrEmptyExchange indicates a completion was requested without user content.
var ErrEmptyExchange = errors.New("chat exchange has no user message")

// Client sends chat exchanges to the configured completion backend.
// It is safe for concurrent use.
type Client struct {
	config  *configuration.Config
	handler transport.Handler
}

// Option customizes client construction.
type Option func(*clientOptions)

type clientOptions struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics Metrics
	core    transport.Handler
}

// WithRedisClient supplies the Redis client used by the response cache.
func WithRedisClient(client *redis.Client) Option {
	return func(o *clientOptions) { o.redis = client }
}

// WithLogger sets the logger used by the logging middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetrics sets the metrics sink used by the logging middleware.
func WithMetrics(metrics Metrics) Option {
	return func(o *clientOptions) { o.metrics = metrics }
}

// WithHandler replaces the HTTP handler at the core of the chain.
// Middlewares still apply.
func WithHandler(h transport.Handler) Option {
	return func(o *clientOptions) { o.core = h }
}

// NewClient builds a client with the full middleware chain.
// A nil cfg uses configuration.DefaultConfig.
func NewClient(ctx context.Context, cfg *configuration.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	core := o.core
	if core == nil {
		router, err := providers.NewRouter(resolveProviderKeys(cfg.Providers))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize router: %w", err)
		}
		core = transport.NewHTTPHandler(newHTTPClient(cfg), router)
	}

	rateLimiter, err := ratelimit.NewRateLimitMiddleware(&cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	middlewares := []transport.Middleware{
		NewLoggingMiddleware(cfg.Observability, o.logger, o.metrics),
	}
	if cfg.Cache.Enabled {
		cacheMiddleware, err := cache.NewCacheMiddlewareWithRedis(ctx, cfg.Cache, o.redis, o.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		middlewares = append(middlewares, cacheMiddleware)
	}
	middlewares = append(middlewares,
		rateLimiter,
		ratelimit.NewInferenceGate(cfg.RateLimit.MaxConcurrentInference),
	)

	return &Client{
		config:  cfg,
		handler: transport.Chain(core, middlewares...),
	}, nil
}

// Complete sends one exchange and returns the first choice's text verbatim.
func (c *Client) Complete(ctx context.Context, exchange domain.ChatExchange) (string, error) {
	if exchange.User == "" {
		return "", ErrEmptyExchange
	}

	gen := c.config.Generation
	req := &transport.Request{
		Operation:     transport.OpCompletion,
		Provider:      c.config.Provider,
		Model:         c.config.Model,
		SystemPrompt:  exchange.System,
		UserPrompt:    exchange.User,
		MaxTokens:     gen.MaxTokens,
		Temperature:   gen.Temperature,
		RepeatPenalty: gen.RepeatPenalty,
		Stop:          gen.Stop,
		Timeout:       c.config.Providers[c.config.Provider].Timeout,
		TraceID:       traceIDFromContext(ctx),
	}

	key, err := transport.GenerateIdemKey(req)
	if err != nil {
		return "", fmt.Errorf("failed to generate idempotency key: %w", err)
	}
	req.IdempotencyKey = key.String()

	resp, err := c.handler.Handle(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", transport.ErrNilResponse
	}
	return resp.Content, nil
}

// newHTTPClient returns cfg.HTTPClient or a pooled client with cfg.HTTPTimeout.
func newHTTPClient(cfg *configuration.Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          configuration.DefaultMaxIdleConns,
			IdleConnTimeout:       configuration.DefaultIdleTimeoutSeconds * time.Second,
			TLSHandshakeTimeout:   configuration.DefaultTLSTimeoutSeconds * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: cfg.HTTPTimeout,
	}
}

// resolveProviderKeys fills APIKey from APIKeyEnv when no key is set inline.
func resolveProviderKeys(in map[string]configuration.ProviderConfig) map[string]configuration.ProviderConfig {
	out := make(map[string]configuration.ProviderConfig, len(in))
	for name, pc := range in {
		if pc.APIKey == "" && pc.APIKeyEnv != "" {
			pc.APIKey = os.Getenv(pc.APIKeyEnv)
		}
		out[name] = pc
	}
	return out
}

type traceIDKey struct{}

// WithTraceID attaches a trace identifier propagated to every request made
// with ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

func traceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
