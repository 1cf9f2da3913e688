package configuration

import (
	"time"
)

// HTTP and connection constants.
const (
	DefaultMaxIdleConns       = 100
	DefaultIdleTimeoutSeconds = 90
	DefaultTLSTimeoutSeconds  = 10

	// Local inference can take minutes for long prompts; the timeout only
	// guards against a hung server.
	DefaultHTTPTimeout = 10 * time.Minute
)

// Provider defaults.
const (
	DefaultProvider        = "llamacpp"
	DefaultLlamaCppBaseURL = "http://127.0.0.1:8080/v1"
	DefaultModel           = "Meta-Llama-3.1-8B-Instruct-Q8_0"
)

// Generation defaults.
const (
	DefaultMaxTokens     = 512
	DefaultTemperature   = 0.0
	DefaultRepeatPenalty = 2.0
)

// Rate limiting constants.
const (
	DefaultTokensPerSecond        = 10
	DefaultBurstSize              = 20
	DefaultMaxConcurrentInference = 1
)

// Cache constants.
const (
	DefaultCacheTTL       = 24 * time.Hour
	DefaultCacheKeyPrefix = "groundqa"
)

// DefaultStopSequences mark end-of-turn and end-of-text for Llama 3 chat templates.
func DefaultStopSequences() []string {
	return []string{"<|eot_id|>", "<|end_of_text|>"}
}

// DefaultGenerationConfig returns the deterministic sampling settings.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		RepeatPenalty: DefaultRepeatPenalty,
		Stop:          DefaultStopSequences(),
	}
}

// DefaultConfig returns a configuration targeting a local llama.cpp server.
// Caching is off by default since it needs a Redis instance.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeout,
		Provider:    DefaultProvider,
		Model:       DefaultModel,
		Providers: map[string]ProviderConfig{
			DefaultProvider: {Endpoint: DefaultLlamaCppBaseURL},
		},
		Generation: DefaultGenerationConfig(),
		RateLimit: RateLimitConfig{
			TokensPerSecond:        DefaultTokensPerSecond,
			BurstSize:              DefaultBurstSize,
			Enabled:                false,
			MaxConcurrentInference: DefaultMaxConcurrentInference,
		},
		Cache: CacheConfig{
			Enabled:   false,
			TTL:       DefaultCacheTTL,
			KeyPrefix: DefaultCacheKeyPrefix,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogFormat:     "text",
			RedactPrompts: true,
		},
	}
}
