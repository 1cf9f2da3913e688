package transport

import (
	"net/http"
	"time"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// OperationType differentiates request kinds for metrics labeling and cache
// key namespacing. Only chat completion exists today.
type OperationType string

const (
	// OpCompletion is a single chat completion of a (system, user) exchange.
	OpCompletion OperationType = "completion"
)

// Request represents a normalized request across all completion providers.
// Contains all information needed for provider-specific HTTP request construction,
// middleware processing, and response correlation.
type Request struct {
	// Operation type affects metrics and cache namespacing.
	Operation OperationType `json:"operation"`

	// Provider identifies which backend adapter to use.
	Provider string `json:"provider"` // "llamacpp"|"openai"

	// Model specifies the model identifier forwarded to the backend.
	Model string `json:"model"`

	// SystemPrompt carries the agent's role description.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// UserPrompt carries the task description and input message.
	UserPrompt string `json:"user_prompt"`

	// Generation parameters control model behavior.
	MaxTokens     int64    `json:"max_tokens"`
	Temperature   float64  `json:"temperature"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	Stop          []string `json:"stop,omitempty"`

	// Control fields for resilience and observability.
	Timeout        time.Duration     `json:"timeout"`
	IdempotencyKey string            `json:"idempotency_key"`
	TraceID        string            `json:"trace_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Response represents normalized output from any completion provider.
type Response struct {
	// Content is the text of the first choice, verbatim.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	FinishReason domain.FinishReason `json:"finish_reason"`

	// ProviderRequestIDs enables cross-system correlation.
	ProviderRequestIDs []string `json:"provider_request_ids"`

	// Usage tracks resource consumption.
	Usage NormalizedUsage `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`

	// RawBody preserves the original response for audit.
	RawBody []byte `json:"-"`
}

// NormalizedUsage provides consistent usage metrics across all providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}
