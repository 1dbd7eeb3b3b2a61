package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := NewClient(time.Second).PostJSON(context.Background(), server.URL,
		map[string]string{"Authorization": "Bearer k"}, map[string]string{"msg": "hi"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_PostJSONStatusError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	err := NewClient(time.Second).PostJSON(context.Background(), server.URL, nil, struct{}{}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 429, se.HTTPStatus())
	assert.Len(t, se.Body, maxErrorBody)
	assert.Contains(t, se.Error(), "status 429")
}

func TestClient_PostJSONMalformedBody(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]string
	err := NewClient(time.Second).PostJSON(context.Background(), server.URL, nil, struct{}{}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_PostJSONContextCancelled(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewClient(0).PostJSON(ctx, server.URL, nil, struct{}{}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
