package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/domain"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// MockHandler provides predictable responses for testing Handler interface.
type MockHandler struct {
	response *transport.Response
	err      error
}

func NewMockHandler(response *transport.Response, err error) *MockHandler {
	return &MockHandler{
		response: response,
		err:      err,
	}
}

func (m *MockHandler) Handle(_ context.Context, _ *transport.Request) (*transport.Response, error) {
	return m.response, m.err
}

func TestChain_MiddlewareOrder(t *testing.T) {
	var order []string
	record := func(name string) transport.Middleware {
		return func(next transport.Handler) transport.Handler {
			return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
				order = append(order, name+":before")
				resp, err := next.Handle(ctx, req)
				order = append(order, name+":after")
				return resp, err
			})
		}
	}

	base := NewMockHandler(&transport.Response{Content: "base"}, nil)
	h := transport.Chain(base, record("outer"), record("inner"))

	resp, err := h.Handle(context.Background(), &transport.Request{Operation: transport.OpCompletion})
	require.NoError(t, err)
	assert.Equal(t, "base", resp.Content)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, order)
}

func TestChain_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("backend down")
	h := transport.Chain(NewMockHandler(nil, wantErr))

	_, err := h.Handle(context.Background(), &transport.Request{})
	assert.ErrorIs(t, err, wantErr)
}

// echoAdapter is a minimal ProviderAdapter that posts the user prompt and
// returns the body as content.
type echoAdapter struct{ url string }

func (a *echoAdapter) Name() string { return "echo" }

func (a *echoAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(req.UserPrompt))
}

func (a *echoAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &transport.Response{Content: string(body), FinishReason: domain.FinishStop}, nil
}

type staticRouter struct {
	adapter transport.ProviderAdapter
	err     error
}

func (r staticRouter) Pick(_, _ string) (transport.ProviderAdapter, error) {
	return r.adapter, r.err
}

func TestHTTPHandler_Handle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &echoAdapter{url: srv.URL}})

	resp, err := h.Handle(context.Background(), &transport.Request{
		Operation:  transport.OpCompletion,
		Provider:   "echo",
		UserPrompt: "hello\nworld",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", resp.Content)
	assert.GreaterOrEqual(t, resp.Usage.LatencyMs, int64(0))
}

func TestHTTPHandler_UnknownProvider(t *testing.T) {
	routeErr := errors.New("unknown provider")
	h := transport.NewHTTPHandler(http.DefaultClient, staticRouter{err: routeErr})

	_, err := h.Handle(context.Background(), &transport.Request{Provider: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, routeErr)
}

func TestHTTPHandler_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &echoAdapter{url: srv.URL}})

	_, err := h.Handle(context.Background(), &transport.Request{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPHandler_SendsTraceIDHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(transport.ClientRequestIDHeader)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &echoAdapter{url: srv.URL}})

	_, err := h.Handle(context.Background(), &transport.Request{TraceID: "run-42"})
	require.NoError(t, err)
	assert.Equal(t, "run-42", got)

	_, err = h.Handle(context.Background(), &transport.Request{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// failingAdapter parses every reply as an error.
type failingAdapter struct {
	echoAdapter
	err error
}

func (a *failingAdapter) Parse(*http.Response) (*transport.Response, error) { return nil, a.err }

func TestHTTPHandler_ParseErrorNamesProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"Loading model","type":"unavailable_error","code":503}}`))
	}))
	defer srv.Close()

	loading := errors.New("loading model")
	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &failingAdapter{echoAdapter: echoAdapter{url: srv.URL}, err: loading}})

	_, err := h.Handle(context.Background(), &transport.Request{})
	require.ErrorIs(t, err, loading)
	assert.Contains(t, err.Error(), "echo: ")
}
