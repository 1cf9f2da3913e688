package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GROUNDQA_BATCH_WORKERS.
const EnvPrefix = "GROUNDQA"

// DefaultEnvFile is loaded when present and no other file is named.
const DefaultEnvFile = ".env"

// LoadOptions locates configuration sources.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty, groundqa.yaml is
	// searched in the working directory and ./configs; absence is not an error.
	ConfigFile string

	// EnvFile is a dotenv file whose variables do not override the process
	// environment. Empty means DefaultEnvFile.
	EnvFile string
}

// Load builds the configuration from all sources and validates it.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("groundqa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every leaf key so environment variables can
// override values that no config file mentions.
func setDefaults(v *viper.Viper, d *Config) {
	llm := d.LLM
	v.SetDefault("llm.http_timeout", llm.HTTPTimeout)
	v.SetDefault("llm.provider", llm.Provider)
	v.SetDefault("llm.model", llm.Model)
	for name, p := range llm.Providers {
		prefix := "llm.providers." + name + "."
		v.SetDefault(prefix+"endpoint", p.Endpoint)
		v.SetDefault(prefix+"api_key", p.APIKey)
		v.SetDefault(prefix+"api_key_env", p.APIKeyEnv)
		v.SetDefault(prefix+"timeout", p.Timeout)
	}
	v.SetDefault("llm.generation.max_tokens", llm.Generation.MaxTokens)
	v.SetDefault("llm.generation.temperature", llm.Generation.Temperature)
	v.SetDefault("llm.generation.repeat_penalty", llm.Generation.RepeatPenalty)
	v.SetDefault("llm.generation.stop", llm.Generation.Stop)
	v.SetDefault("llm.rate_limit.tokens_per_second", llm.RateLimit.TokensPerSecond)
	v.SetDefault("llm.rate_limit.burst_size", llm.RateLimit.BurstSize)
	v.SetDefault("llm.rate_limit.enabled", llm.RateLimit.Enabled)
	v.SetDefault("llm.rate_limit.max_concurrent_inference", llm.RateLimit.MaxConcurrentInference)
	v.SetDefault("llm.cache.enabled", llm.Cache.Enabled)
	v.SetDefault("llm.cache.ttl", llm.Cache.TTL)
	v.SetDefault("llm.cache.redis_addr", llm.Cache.RedisAddr)
	v.SetDefault("llm.cache.redis_password", llm.Cache.RedisPassword)
	v.SetDefault("llm.cache.redis_db", llm.Cache.RedisDB)
	v.SetDefault("llm.cache.key_prefix", llm.Cache.KeyPrefix)
	v.SetDefault("llm.observability.log_level", llm.Observability.LogLevel)
	v.SetDefault("llm.observability.log_format", llm.Observability.LogFormat)
	v.SetDefault("llm.observability.redact_prompts", llm.Observability.RedactPrompts)
	v.SetDefault("llm.observability.metrics_addr", llm.Observability.MetricsAddr)

	s := d.Search
	v.SetDefault("search.n_results", s.NResults)
	v.SetDefault("search.language", s.Language)
	v.SetDefault("search.engine_endpoint", s.EngineEndpoint)
	v.SetDefault("search.engine_qps", s.EngineQPS)
	v.SetDefault("search.fetch_timeout", s.FetchTimeout)
	v.SetDefault("search.max_body_bytes", s.MaxBodyBytes)
	v.SetDefault("search.max_parallel", s.MaxParallel)
	v.SetDefault("search.insecure_skip_verify", s.InsecureSkipVerify)
	v.SetDefault("search.user_agent", s.UserAgent)

	v.SetDefault("policy.min_length", d.Policy.MinLength)
	v.SetDefault("policy.triggers", d.Policy.Triggers)

	r := d.Retry
	v.SetDefault("retry.max_attempts", r.MaxAttempts)
	v.SetDefault("retry.base", r.Base)
	v.SetDefault("retry.unit", r.Unit)
	v.SetDefault("retry.max_jitter", r.MaxJitter)
	v.SetDefault("retry.max_delay", r.MaxDelay)

	b := d.Batch
	v.SetDefault("batch.workers", b.Workers)
	v.SetDefault("batch.continue_on_error", b.ContinueOnError)
	v.SetDefault("batch.input", b.Input)
	v.SetDefault("batch.output_dir", b.OutputDir)
	v.SetDefault("batch.start_index", b.StartIndex)

	v.SetDefault("agent.language", d.Agent.Language)
}
