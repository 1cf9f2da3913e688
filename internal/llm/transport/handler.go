// Package transport defines the normalized completion request and the
// composable handler pipeline that carries it to a provider over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNilResponse indicates an adapter returned neither a response nor an error.
var ErrNilResponse = errors.New("provider returned nil response")

// Router picks the adapter for a provider name.
type Router interface {
	Pick(provider, model string) (ProviderAdapter, error)
}

// ProviderAdapter turns a Request into a backend HTTP request and parses the
// reply. Implementations live in the providers package.
type ProviderAdapter interface {
	Build(ctx context.Context, req *Request) (*http.Request, error)
	Parse(httpResp *http.Response) (*Response, error)
	Name() string
}

// Handler carries one completion request to a backend and returns its
// normalized response. Caching, rate limiting and logging wrap it as
// Middleware.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain wraps h so that the first middleware is outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// ClientRequestIDHeader carries the run's trace ID to the backend. OpenAI
// echoes it in its logs; llama-server ignores it.
const ClientRequestIDHeader = "X-Client-Request-Id"

// maxDrainBytes bounds how much of an unread body is discarded so the
// connection to the backend can be reused.
const maxDrainBytes = 64 << 10

// NewHTTPHandler returns the innermost handler, which posts the request to
// the backend picked by router.
func NewHTTPHandler(client *http.Client, router Router) Handler {
	return &backendHandler{client: client, router: router}
}

type backendHandler struct {
	client *http.Client
	router Router
}

// Handle sends req and parses the reply. Usage.LatencyMs spans the whole
// exchange including the body read, since a non-streaming completion
// arrives only once generation is done.
func (h *backendHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	adapter, err := h.router.Pick(req.Provider, req.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to select provider: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", adapter.Name(), err)
	}
	if req.TraceID != "" && httpReq.Header.Get(ClientRequestIDHeader) == "" {
		httpReq.Header.Set(ClientRequestIDHeader, req.TraceID)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: HTTP request failed: %w", adapter.Name(), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxDrainBytes))
		_ = httpResp.Body.Close()
	}()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", adapter.Name(), err)
	}
	if resp == nil {
		return nil, ErrNilResponse
	}

	resp.Usage.LatencyMs = time.Since(start).Milliseconds()
	return resp, nil
}
