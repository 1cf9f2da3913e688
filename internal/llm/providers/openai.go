package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// DefaultOpenAIEndpoint is the production OpenAI API base URL.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIAdapter implements ProviderAdapter for OpenAI and hosted services
// that mirror its API. repeat_penalty has no OpenAI equivalent and is not sent.
type OpenAIAdapter struct {
	config configuration.ProviderConfig
}

// NewOpenAIAdapter creates an OpenAI provider adapter with default endpoint.
func NewOpenAIAdapter(cfg configuration.ProviderConfig) *OpenAIAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOpenAIEndpoint
	}
	return &OpenAIAdapter{config: cfg}
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string {
	return ProviderOpenAI
}

// Build constructs an authenticated chat/completions request.
func (a *OpenAIAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    buildChatMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}

	httpReq, err := newChatHTTPRequest(ctx, a.config.Endpoint, body, req, a.config.Headers)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.config.APIKey))
	return httpReq, nil
}

// Parse extracts the first choice from an OpenAI response.
func (a *OpenAIAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	return parseChatResponse(ProviderOpenAI, httpResp)
}
