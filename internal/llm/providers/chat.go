package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ahrav/go-groundqa/internal/domain"
	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// chatMessage is one entry of the chat/completions messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat/completions request body. RepeatPenalty is a
// llama.cpp extension and is omitted for backends that do not accept it.
type chatRequest struct {
	Model         string        `json:"model"`
	Messages      []chatMessage `json:"messages"`
	MaxTokens     int64         `json:"max_tokens"`
	Temperature   float64       `json:"temperature"`
	RepeatPenalty float64       `json:"repeat_penalty,omitempty"`
	Stop          []string      `json:"stop,omitempty"`
}

// chatResponse is the subset of the chat/completions response we consume.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// chatErrorResponse covers both the OpenAI error envelope and the flat
// shape some llama.cpp builds return.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// buildChatMessages places the role description in the system slot and the
// task plus input in the user slot. An empty system prompt is omitted.
func buildChatMessages(req *transport.Request) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	return append(messages, chatMessage{Role: "user", Content: req.UserPrompt})
}

// newChatHTTPRequest marshals body and prepares a POST to
// {endpoint}/chat/completions with common headers applied.
func newChatHTTPRequest(
	ctx context.Context,
	endpoint string,
	body chatRequest,
	req *transport.Request,
	headers map[string]string,
) (*http.Request, error) {
	if req.Operation != transport.OpCompletion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Operation)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// parseChatResponse reads a chat/completions response and returns the
// first choice verbatim. A non-200 status becomes a ProviderError.
func parseChatResponse(provider string, httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseChatError(provider, httpResp, body)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", llmerrors.ErrInvalidResponse, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llmerrors.ErrNoChoices
	}

	var requestIDs []string
	if reqID := httpResp.Header.Get("x-request-id"); reqID != "" {
		requestIDs = append(requestIDs, reqID)
	}
	if resp.ID != "" {
		requestIDs = append(requestIDs, resp.ID)
	}

	return &transport.Response{
		Content:            resp.Choices[0].Message.Content,
		FinishReason:       mapFinishReason(resp.Choices[0].FinishReason),
		ProviderRequestIDs: requestIDs,
		Usage: transport.NormalizedUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Headers: httpResp.Header,
		RawBody: body,
	}, nil
}

// mapFinishReason converts finish_reason to the domain FinishReason.
func mapFinishReason(reason string) domain.FinishReason {
	switch reason {
	case "length":
		return domain.FinishLength
	case "content_filter":
		return domain.FinishContentFilter
	default:
		return domain.FinishStop
	}
}

// parseChatError converts an error response into a ProviderError. OpenAI
// sends a string code; llama-server sends the numeric status.
func parseChatError(provider string, httpResp *http.Response, body []byte) error {
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		code := ""
		if errResp.Error.Code != nil {
			code = fmt.Sprint(errResp.Error.Code)
		}
		return &llmerrors.ProviderError{
			Provider:   provider,
			StatusCode: httpResp.StatusCode,
			Message:    errResp.Error.Message,
			Code:       code,
			Type:       classifyErrorType(httpResp.StatusCode, errResp.Error.Type, code),
		}
	}

	return &llmerrors.ProviderError{
		Provider:   provider,
		StatusCode: httpResp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		Type:       classifyErrorType(httpResp.StatusCode, "", ""),
	}
}
