package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// LlamaCppAdapter implements ProviderAdapter for a local llama.cpp server
// exposing the OpenAI-compatible /v1/chat/completions endpoint. It forwards
// repeat_penalty and stop sequences, which the server honors natively.
type LlamaCppAdapter struct {
	config configuration.ProviderConfig
}

// NewLlamaCppAdapter creates a llama.cpp adapter, defaulting the endpoint to
// the server's standard local address.
func NewLlamaCppAdapter(cfg configuration.ProviderConfig) *LlamaCppAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = configuration.DefaultLlamaCppBaseURL
	}
	return &LlamaCppAdapter{config: cfg}
}

// Name returns the provider name.
func (a *LlamaCppAdapter) Name() string {
	return ProviderLlamaCpp
}

// Build constructs a chat/completions request. Authentication is only sent
// when an API key is configured, matching llama-server's --api-key option.
func (a *LlamaCppAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	body := chatRequest{
		Model:         req.Model,
		Messages:      buildChatMessages(req),
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		RepeatPenalty: req.RepeatPenalty,
		Stop:          req.Stop,
	}

	httpReq, err := newChatHTTPRequest(ctx, a.config.Endpoint, body, req, a.config.Headers)
	if err != nil {
		return nil, err
	}
	if a.config.APIKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.config.APIKey))
	}
	return httpReq, nil
}

// Parse extracts the first choice from a llama.cpp response.
func (a *LlamaCppAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	return parseChatResponse(ProviderLlamaCpp, httpResp)
}
