// Package configuration holds the settings of the text-completion backend:
// provider endpoints, generation parameters, rate limiting, response caching
// and observability. Values are plain structs so the app-level loader can
// decode them from YAML or environment variables.
package configuration

import (
	"net/http"
	"time"
)

// Config holds comprehensive configuration for the LLM client.
// Includes provider settings, generation parameters, resilience options
// and observability options for the completion backend.
type Config struct {
	// HTTP client configuration
	HTTPTimeout time.Duration `json:"http_timeout" mapstructure:"http_timeout"`
	HTTPClient  *http.Client  `json:"-" mapstructure:"-"`

	// Provider names the adapter used for every request ("llamacpp" or "openai").
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`

	// Model is forwarded to the backend; llama.cpp servers ignore it.
	Model string `json:"model" mapstructure:"model"`

	// Provider configurations keyed by provider name.
	Providers map[string]ProviderConfig `json:"providers" mapstructure:"providers"`

	// Generation parameters shared by every agent.
	Generation GenerationConfig `json:"generation" mapstructure:"generation"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit"`

	// Cache configuration
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Observability configuration
	Observability ObservabilityConfig `json:"observability" mapstructure:"observability"`
}

// ProviderConfig holds provider-specific configuration and authentication.
type ProviderConfig struct {
	Endpoint  string            `json:"endpoint" mapstructure:"endpoint"`
	APIKey    string            `json:"-" mapstructure:"api_key"` // Sensitive, not serialized
	APIKeyEnv string            `json:"api_key_env" mapstructure:"api_key_env"`
	Timeout   time.Duration     `json:"timeout" mapstructure:"timeout"`
	Headers   map[string]string `json:"headers" mapstructure:"headers"`
}

// GenerationConfig fixes the sampling behavior of the backend.
// Temperature zero makes every agent deterministic for a given exchange.
type GenerationConfig struct {
	MaxTokens     int64    `json:"max_tokens" mapstructure:"max_tokens" validate:"gt=0"`
	Temperature   float64  `json:"temperature" mapstructure:"temperature" validate:"gte=0"`
	RepeatPenalty float64  `json:"repeat_penalty" mapstructure:"repeat_penalty" validate:"gte=0"`
	Stop          []string `json:"stop" mapstructure:"stop"`
}

// RateLimitConfig throttles calls into the shared backend.
type RateLimitConfig struct {
	// Local token bucket configuration.
	TokensPerSecond float64 `json:"tokens_per_second" mapstructure:"tokens_per_second"`
	BurstSize       int     `json:"burst_size" mapstructure:"burst_size"`
	Enabled         bool    `json:"enabled" mapstructure:"enabled"`

	// MaxConcurrentInference bounds in-flight completions. One serializes
	// every call, which a single local model requires.
	MaxConcurrentInference int64 `json:"max_concurrent_inference" mapstructure:"max_concurrent_inference" validate:"gte=0"`
}

// CacheConfig controls Redis-based response caching.
// Caching is sound because completions are requested at temperature zero.
type CacheConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	RedisAddr     string        `json:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `json:"-" mapstructure:"redis_password"` // Sensitive field excluded from JSON.
	RedisDB       int           `json:"redis_db" mapstructure:"redis_db"`
	KeyPrefix     string        `json:"key_prefix" mapstructure:"key_prefix"`
}

// ObservabilityConfig controls logging and metrics.
type ObservabilityConfig struct {
	LogLevel      string `json:"log_level" mapstructure:"log_level"`
	LogFormat     string `json:"log_format" mapstructure:"log_format"`
	RedactPrompts bool   `json:"redact_prompts" mapstructure:"redact_prompts"`
	MetricsAddr   string `json:"metrics_addr" mapstructure:"metrics_addr"`
}
