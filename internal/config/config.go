// Package config loads application settings from defaults, an optional YAML
// file, a .env file and GROUNDQA_-prefixed environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-groundqa/internal/agent"
	"github.com/ahrav/go-groundqa/internal/batch"
	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	"github.com/ahrav/go-groundqa/internal/policy"
	"github.com/ahrav/go-groundqa/internal/retry"
	"github.com/ahrav/go-groundqa/internal/search"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the full application configuration.
type Config struct {
	LLM    configuration.Config `json:"llm" mapstructure:"llm"`
	Search search.Config        `json:"search" mapstructure:"search"`
	Policy policy.Config        `json:"policy" mapstructure:"policy"`
	Retry  retry.Config         `json:"retry" mapstructure:"retry"`
	Batch  BatchConfig          `json:"batch" mapstructure:"batch"`
	Agent  AgentConfig          `json:"agent" mapstructure:"agent"`
}

// BatchConfig locates batch input and output and controls execution.
type BatchConfig struct {
	batch.Config `mapstructure:",squash"`

	Input      string `json:"input" mapstructure:"input"`
	OutputDir  string `json:"output_dir" mapstructure:"output_dir" validate:"required"`
	StartIndex int    `json:"start_index" mapstructure:"start_index" validate:"gte=1"`
}

// AgentConfig parameterizes the agent roles.
type AgentConfig struct {
	// Language is the language every role is instructed to answer in.
	Language string `json:"language" mapstructure:"language" validate:"required"`
}

// Batch defaults.
const (
	DefaultInput      = "public.txt"
	DefaultOutputDir  = "answers"
	DefaultStartIndex = 1
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LLM:    *configuration.DefaultConfig(),
		Search: search.DefaultConfig(),
		Policy: policy.DefaultConfig(),
		Retry:  retry.DefaultConfig(),
		Batch: BatchConfig{
			Config:     batch.DefaultConfig(),
			Input:      DefaultInput,
			OutputDir:  DefaultOutputDir,
			StartIndex: DefaultStartIndex,
		},
		Agent: AgentConfig{Language: agent.DefaultAnswerLanguage},
	}
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, ok := c.LLM.Providers[c.LLM.Provider]; !ok {
		return fmt.Errorf("%w: provider %q has no entry under llm.providers", ErrInvalidConfig, c.LLM.Provider)
	}
	return nil
}
