// Package providers adapts the normalized completion request to concrete
// backends. Both supported backends speak the OpenAI chat/completions wire
// format; they differ in defaults, authentication and sampling extensions.
package providers

import (
	"fmt"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// Router selects the appropriate provider adapter for request routing.
type Router = transport.Router

// ProviderAdapter abstracts provider-specific HTTP communication patterns.
type ProviderAdapter = transport.ProviderAdapter

// Supported completion provider identifiers.
// These constants must match the provider names used in configuration.
const (
	ProviderLlamaCpp = "llamacpp" // Local llama.cpp server
	ProviderOpenAI   = "openai"   // OpenAI or any hosted compatible API
)

// NewRouter creates a router with configured provider adapters.
func NewRouter(configs map[string]configuration.ProviderConfig) (Router, error) {
	adapters := make(map[string]ProviderAdapter, len(configs))

	for name, cfg := range configs {
		var adapter ProviderAdapter
		switch name {
		case ProviderLlamaCpp:
			adapter = NewLlamaCppAdapter(cfg)
		case ProviderOpenAI:
			adapter = NewOpenAIAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, name)
		}
		adapters[name] = adapter
	}

	return &router{adapters: adapters}, nil
}

// router implements Router with a provider adapter registry.
type router struct {
	adapters map[string]ProviderAdapter
}

// Pick selects the adapter for the given provider name.
// The model is forwarded in the request body and does not affect routing.
func (r *router) Pick(provider, _ string) (ProviderAdapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, provider)
	}
	return adapter, nil
}
