package capability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestOpenAIGenerator_SendsSystemAndUserMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "classify things", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody(`{"intent":"faq"}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator("groq", testOptions(server.URL))
	out, err := gen.Generate(context.Background(), "Query: hours?", "classify things")

	require.NoError(t, err)
	assert.Equal(t, `{"intent":"faq"}`, out)
	assert.Equal(t, "groq", gen.Name())
}

func TestOpenAIGenerator_OmitsEmptySystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 1)
		_ = json.NewEncoder(w).Encode(chatCompletionBody("hi"))
	}))
	defer server.Close()

	_, err := NewOpenAIGenerator("ollama", testOptions(server.URL)).Generate(context.Background(), "p", "")
	require.NoError(t, err)
}

func TestOpenAIGenerator_RetriesRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(chatCompletionBody("done"))
	}))
	defer server.Close()

	out, err := NewOpenAIGenerator("openai", testOptions(server.URL)).Generate(context.Background(), "p", "")

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestOpenAIGenerator_AuthErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIGenerator("openai", testOptions(server.URL)).Generate(context.Background(), "p", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := chatCompletionBody("")
		body["choices"] = []interface{}{}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	_, err := NewOpenAIGenerator("openai", testOptions(server.URL)).Generate(context.Background(), "p", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
