package search

import "time"

// Defaults for search and fetch behavior.
const (
	DefaultNResults       = 3
	DefaultLanguage       = "zh"
	DefaultFetchTimeout   = 10 * time.Second
	DefaultMaxQueryRunes  = 100
	DefaultMaxBodyBytes   = 4 << 20
	DefaultMaxParallel    = 8
	DefaultEngineEndpoint = "https://html.duckduckgo.com/html/"
	DefaultEngineQPS      = 1.0
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config controls the search provider, its engine and its fetcher.
type Config struct {
	// NResults is half the number of URLs requested from the engine.
	NResults int `json:"n_results" mapstructure:"n_results" validate:"gte=1"`

	// Language is the engine language hint (e.g., "zh").
	Language string `json:"language" mapstructure:"language"`

	// EngineEndpoint is the DuckDuckGo HTML endpoint; overridable for tests.
	EngineEndpoint string `json:"engine_endpoint" mapstructure:"engine_endpoint" validate:"required,url"`

	// EngineQPS bounds queries per second sent to the engine.
	EngineQPS float64 `json:"engine_qps" mapstructure:"engine_qps" validate:"gte=0"`

	// FetchTimeout bounds each HEAD and each GET separately.
	FetchTimeout time.Duration `json:"fetch_timeout" mapstructure:"fetch_timeout" validate:"gt=0"`

	// MaxBodyBytes caps how much of a page body is read.
	MaxBodyBytes int64 `json:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`

	// MaxParallel bounds concurrent page fetches; zero means unbounded.
	MaxParallel int `json:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`

	// InsecureSkipVerify disables TLS certificate checks for fetched pages.
	InsecureSkipVerify bool `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	UserAgent string `json:"user_agent" mapstructure:"user_agent"`
}

// DefaultConfig returns the search settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		NResults:       DefaultNResults,
		Language:       DefaultLanguage,
		EngineEndpoint: DefaultEngineEndpoint,
		EngineQPS:      DefaultEngineQPS,
		FetchTimeout:   DefaultFetchTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		MaxParallel:    DefaultMaxParallel,
		UserAgent:      DefaultUserAgent,
	}
}
