package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

func baseRequest() *transport.Request {
	return &transport.Request{
		Operation:     transport.OpCompletion,
		Provider:      "llamacpp",
		Model:         "llama3",
		SystemPrompt:  "role",
		UserPrompt:    "Task Description: t\nQuestion: q",
		MaxTokens:     512,
		RepeatPenalty: 2.0,
		Stop:          []string{"<|eot_id|>"},
	}
}

func TestGenerateIdemKey_Deterministic(t *testing.T) {
	k1, err := transport.GenerateIdemKey(baseRequest())
	require.NoError(t, err)
	k2, err := transport.GenerateIdemKey(baseRequest())
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1.String(), 64)
}

func TestGenerateIdemKey_Normalization(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.Provider = "  LlamaCpp "
	b.UserPrompt = "  Task Description: t\r\nQuestion: q\n"

	ka, err := transport.GenerateIdemKey(a)
	require.NoError(t, err)
	kb, err := transport.GenerateIdemKey(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestGenerateIdemKey_SensitiveToPromptAndParams(t *testing.T) {
	base, err := transport.GenerateIdemKey(baseRequest())
	require.NoError(t, err)

	mutations := map[string]func(r *transport.Request){
		"inner whitespace": func(r *transport.Request) { r.UserPrompt = "Task Description: t\nQuestion:  q" },
		"system prompt":    func(r *transport.Request) { r.SystemPrompt = "other role" },
		"max tokens":       func(r *transport.Request) { r.MaxTokens = 256 },
		"repeat penalty":   func(r *transport.Request) { r.RepeatPenalty = 1.1 },
		"stop":             func(r *transport.Request) { r.Stop = nil },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			req := baseRequest()
			mutate(req)
			k, err := transport.GenerateIdemKey(req)
			require.NoError(t, err)
			assert.NotEqual(t, base, k)
		})
	}
}

func TestGenerateIdemKey_Validation(t *testing.T) {
	req := baseRequest()
	req.Operation = ""
	_, err := transport.GenerateIdemKey(req)
	assert.ErrorIs(t, err, transport.ErrOperationRequired)

	req = baseRequest()
	req.Provider = " "
	_, err = transport.GenerateIdemKey(req)
	assert.ErrorIs(t, err, transport.ErrProviderRequired)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "groundqa:completion:abc", transport.CacheKey("groundqa", transport.OpCompletion, "abc"))
}
