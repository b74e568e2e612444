// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(nil)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, DefaultModel, client.GetDefaultModel())

	client = NewClientWithConfig(&ClientConfig{BaseURL: "http://example:1234/"})
	assert.Equal(t, "http://example:1234", client.BaseURL())
	assert.Equal(t, DefaultModel, client.GetDefaultModel())
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_SendsWholeConversation(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Hi there"},"done":true}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	history := []Message{
		NewUserMessage("Hello"),
		NewAssistantMessage("Hey"),
		NewUserMessage("How are you?"),
	}

	resp, err := client.Chat(context.Background(), "", history)
	require.NoError(t, err)

	assert.Equal(t, "assistant", resp.Message.Role)
	assert.Equal(t, "Hi there", resp.Message.Content)
	assert.Equal(t, DefaultModel, got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, history, got.Messages)
}

func TestChat_ExplicitModel(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Chat(context.Background(), "mistral", []Message{NewUserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, "mistral", got.Model)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{"model missing", http.StatusNotFound, `{"error":"model 'llama3' not found"}`, ErrModelNotFound, "model 'llama3' not found"},
		{"model missing no body", http.StatusNotFound, ``, ErrModelNotFound, "model not found"},
		{"server error body", http.StatusInternalServerError, `{"error":"out of memory"}`, ErrInvalidResponse, "out of memory"},
		{"server error plain", http.StatusBadGateway, `oops`, ErrInvalidResponse, "chat request failed"},
		{"malformed json", http.StatusOK, `{"message": `, ErrInvalidResponse, "failed to decode response"},
		{"missing message", http.StatusOK, `{"done": true}`, ErrInvalidResponse, "response missing message"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
			resp, err := client.Chat(context.Background(), "", []Message{NewUserMessage("x")})

			assert.Nil(t, resp)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantIs)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestChat_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.Chat(context.Background(), "", []Message{NewUserMessage("x")})

	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
	assert.False(t, IsModelNotFound(err))

	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.NotNil(t, clientErr.Unwrap(), "transport cause should be preserved")
}

func TestChat_ContextDeadline(t *testing.T) {
	// The handler holds the request until the test is done with it; the
	// server cannot close while a handler is still running.
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, "", []Message{NewUserMessage("x")})
	assert.ErrorIs(t, err, ErrTimeout)
}

// =============================================================================
// HEALTH CHECK TESTS
// =============================================================================

func TestCheckRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	assert.NoError(t, client.CheckRunning(context.Background()))
}

func TestCheckRunning_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.CheckRunning(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// =============================================================================
// RESPONSE HELPER TESTS
// =============================================================================

func TestChatResponse_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name         string
		evalCount    int
		evalDuration int64
		want         float64
	}{
		{"normal", 100, int64(time.Second), 100.0},
		{"zero duration", 100, 0, 0.0},
		{"fast", 1000, int64(100 * time.Millisecond), 10000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &ChatResponse{EvalCount: tc.evalCount, EvalDuration: tc.evalDuration}
			assert.InDelta(t, tc.want, resp.TokensPerSecond(), tc.want*0.01)
		})
	}
}

func TestChatResponse_TotalTime(t *testing.T) {
	resp := &ChatResponse{TotalDuration: int64(2 * time.Second)}
	assert.Equal(t, 2*time.Second, resp.TotalTime())
}
