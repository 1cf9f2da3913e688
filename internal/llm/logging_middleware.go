package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// responsePreviewRunes bounds the response text logged when prompts are not redacted.
const responsePreviewRunes = 200

// Metrics provides observability data collection for completion requests.
// Supports counters, histograms, and gauges with tag-based dimensionality.
type Metrics interface {
	IncrementCounter(name string, tags map[string]string, value float64)
	RecordHistogram(name string, tags map[string]string, value float64)
	SetGauge(name string, tags map[string]string, value float64)
}

// NoOpMetrics discards all metrics.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a no-op metrics collector.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (n *NoOpMetrics) IncrementCounter(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) RecordHistogram(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) SetGauge(_ string, _ map[string]string, _ float64) {}

// LoggingMiddleware records the lifecycle of each completion request.
// Prompt and response text are replaced by their lengths when redaction is on.
type LoggingMiddleware struct {
	logger        *slog.Logger
	metrics       Metrics
	redactPrompts bool
}

// NewLoggingMiddleware creates observability middleware with structured logging.
func NewLoggingMiddleware(config configuration.ObservabilityConfig, logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	lm := &LoggingMiddleware{
		logger:        logger.With("component", "llm"),
		metrics:       metrics,
		redactPrompts: config.RedactPrompts,
	}

	return lm.Middleware
}

// Middleware wraps a handler with request logging and metrics.
func (m *LoggingMiddleware) Middleware(next transport.Handler) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		baseTags := map[string]string{
			"provider":  req.Provider,
			"model":     req.Model,
			"operation": string(req.Operation),
		}

		m.logRequest(ctx, req)
		m.metrics.IncrementCounter("llm.requests.total", baseTags, 1)

		start := time.Now()
		resp, err := next.Handle(ctx, req)
		duration := time.Since(start)

		m.metrics.RecordHistogram("llm.request.duration_ms", baseTags, float64(duration.Milliseconds()))

		if err != nil {
			m.handleError(ctx, req, err, duration, baseTags)
		} else if resp != nil {
			m.handleSuccess(ctx, req, resp, duration, baseTags)
		}

		return resp, err
	})
}

func (m *LoggingMiddleware) logRequest(ctx context.Context, req *transport.Request) {
	fields := []any{
		"request_id", req.TraceID,
		"provider", req.Provider,
		"model", req.Model,
		"max_tokens", req.MaxTokens,
		"temperature", req.Temperature,
	}

	if m.redactPrompts {
		fields = append(fields,
			"system_prompt_length", utf8.RuneCountInString(req.SystemPrompt),
			"user_prompt_length", utf8.RuneCountInString(req.UserPrompt))
	} else {
		fields = append(fields, "system_prompt", req.SystemPrompt, "user_prompt", req.UserPrompt)
	}

	m.logger.DebugContext(ctx, "completion request started", fields...)
}

func (m *LoggingMiddleware) handleError(
	ctx context.Context,
	req *transport.Request,
	err error,
	duration time.Duration,
	baseTags map[string]string,
) {
	errorType := string(llmerrors.Classify(err))

	errorTags := copyTags(baseTags)
	errorTags["error_type"] = errorType
	m.metrics.IncrementCounter("llm.requests.errors", errorTags, 1)

	m.logger.ErrorContext(ctx, "completion request failed",
		"request_id", req.TraceID,
		"provider", req.Provider,
		"model", req.Model,
		"duration_ms", duration.Milliseconds(),
		"error_type", errorType,
		"error", err.Error(),
	)
}

func (m *LoggingMiddleware) handleSuccess(
	ctx context.Context,
	req *transport.Request,
	resp *transport.Response,
	duration time.Duration,
	baseTags map[string]string,
) {
	m.metrics.IncrementCounter("llm.requests.success", baseTags, 1)
	m.metrics.RecordHistogram("llm.tokens.prompt", baseTags, float64(resp.Usage.PromptTokens))
	m.metrics.RecordHistogram("llm.tokens.completion", baseTags, float64(resp.Usage.CompletionTokens))

	fields := []any{
		"request_id", req.TraceID,
		"provider", req.Provider,
		"model", req.Model,
		"duration_ms", duration.Milliseconds(),
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"provider_request_ids", strings.Join(resp.ProviderRequestIDs, ","),
	}

	if m.redactPrompts {
		fields = append(fields, "response_length", utf8.RuneCountInString(resp.Content))
	} else {
		fields = append(fields, "response_preview", preview(resp.Content, responsePreviewRunes))
	}

	m.logger.InfoContext(ctx, "completion request completed", fields...)
}

// preview truncates s to n runes, marking the cut.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// copyTags copies a tag map so callers can add keys without aliasing.
func copyTags(original map[string]string) map[string]string {
	tagsCopy := make(map[string]string, len(original)+1)
	for k, v := range original {
		tagsCopy[k] = v
	}
	return tagsCopy
}
