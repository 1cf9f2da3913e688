package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/domain"
	"github.com/ahrav/go-groundqa/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-groundqa/internal/llm/errors"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// recordingMetrics captures counter increments by name.
type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
	tags     map[string]map[string]string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}, tags: map[string]map[string]string{}}
}

func (r *recordingMetrics) IncrementCounter(name string, tags map[string]string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
	r.tags[name] = tags
}

func (r *recordingMetrics) RecordHistogram(string, map[string]string, float64) {}

func (r *recordingMetrics) SetGauge(string, map[string]string, float64) {}

func newLlamaServer(t *testing.T, calls *atomic.Int32, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.InDelta(t, 2.0, body["repeat_penalty"], 0.0001)
		assert.InDelta(t, 0, body["temperature"], 0.0001)
		assert.InDelta(t, 512, body["max_tokens"], 0.0001)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(endpoint string) *configuration.Config {
	cfg := configuration.DefaultConfig()
	cfg.Providers[configuration.DefaultProvider] = configuration.ProviderConfig{Endpoint: endpoint}
	return cfg
}

func TestClient_CompleteAgainstServer(t *testing.T) {
	var calls atomic.Int32
	server := newLlamaServer(t, &calls, "答案")

	client, err := NewClient(context.Background(), testConfig(server.URL+"/v1"))
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), domain.ChatExchange{System: "role", User: "Task Description: t\nQuestion: q"})
	require.NoError(t, err)
	assert.Equal(t, "答案", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CompleteRejectsEmptyUser(t *testing.T) {
	client, err := NewClient(context.Background(), nil, WithHandler(transport.HandlerFunc(
		func(context.Context, *transport.Request) (*transport.Response, error) {
			t.Fatal("handler must not be called")
			return nil, nil
		})))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), domain.ChatExchange{System: "role"})
	require.ErrorIs(t, err, ErrEmptyExchange)
}

func TestClient_RequestCarriesGenerationConfig(t *testing.T) {
	var captured *transport.Request
	core := transport.HandlerFunc(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		captured = req
		return &transport.Response{Content: "ok"}, nil
	})

	client, err := NewClient(context.Background(), nil, WithHandler(core))
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-1")
	_, err = client.Complete(ctx, domain.ChatExchange{System: "s", User: "u"})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, transport.OpCompletion, captured.Operation)
	assert.Equal(t, configuration.DefaultProvider, captured.Provider)
	assert.Equal(t, "s", captured.SystemPrompt)
	assert.Equal(t, "u", captured.UserPrompt)
	assert.Equal(t, int64(configuration.DefaultMaxTokens), captured.MaxTokens)
	assert.Equal(t, configuration.DefaultStopSequences(), captured.Stop)
	assert.Equal(t, "trace-1", captured.TraceID)
	assert.Len(t, captured.IdempotencyKey, 64)
}

func TestClient_BackendErrorPropagatesAndIsCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"Loading model","type":"unavailable_error"}}`))
	}))
	t.Cleanup(server.Close)

	metrics := newRecordingMetrics()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	client, err := NewClient(context.Background(), testConfig(server.URL), WithMetrics(metrics), WithLogger(logger))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), domain.ChatExchange{User: "q"})
	var providerErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusServiceUnavailable, providerErr.StatusCode)

	assert.InDelta(t, 1, metrics.counters["llm.requests.errors"], 0.0001)
	assert.Equal(t, string(llmerrors.ErrorTypeProvider), metrics.tags["llm.requests.errors"]["error_type"])
	assert.Contains(t, logs.String(), "completion request failed")
}

func TestClient_CacheServesRepeatedExchange(t *testing.T) {
	var calls atomic.Int32
	server := newLlamaServer(t, &calls, "cached answer")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(server.URL + "/v1")
	cfg.Cache.Enabled = true

	client, err := NewClient(context.Background(), cfg, WithRedisClient(rdb))
	require.NoError(t, err)

	exchange := domain.ChatExchange{System: "role", User: "same question"}
	for range 3 {
		got, err := client.Complete(context.Background(), exchange)
		require.NoError(t, err)
		assert.Equal(t, "cached answer", got)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_InferenceIsSerialized(t *testing.T) {
	var inFlight, peak atomic.Int32
	core := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &transport.Response{Content: "ok"}, nil
	})

	client, err := NewClient(context.Background(), nil, WithHandler(core))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Complete(context.Background(), domain.ChatExchange{User: string(rune('a' + i))})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestClient_UnknownProvider(t *testing.T) {
	cfg := configuration.DefaultConfig()
	cfg.Providers = map[string]configuration.ProviderConfig{"bogus": {}}

	_, err := NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llmerrors.ErrUnknownProvider))
}

func TestResolveProviderKeys(t *testing.T) {
	t.Setenv("GROUNDQA_TEST_KEY", "from-env")

	out := resolveProviderKeys(map[string]configuration.ProviderConfig{
		"openai":   {APIKeyEnv: "GROUNDQA_TEST_KEY"},
		"llamacpp": {APIKey: "inline", APIKeyEnv: "GROUNDQA_TEST_KEY"},
	})

	assert.Equal(t, "from-env", out["openai"].APIKey)
	assert.Equal(t, "inline", out["llamacpp"].APIKey)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "短", preview("短", 3))
	assert.Equal(t, "一二...", preview("一二三四", 2))
}
