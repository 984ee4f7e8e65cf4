package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageJSON(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                10,
			"output_tokens":               5,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     7,
		},
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageJSON(`{"confidence_score": 90}`)) //nolint:errcheck
	}))
	defer ts.Close()

	temp := 0.1
	client := NewClient("test-key", ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:       DefaultModel,
		MaxTokens:   500,
		System:      BuildCachedSystemBlocks("validator prompt", ""),
		Messages:    []Message{{Role: "user", Content: "assess"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, `{"confidence_score": 90}`, resp.Text())
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.CacheReadInputTokens)

	assert.Equal(t, DefaultModel, body["model"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	block := system[0].(map[string]any)
	assert.Equal(t, "validator prompt", block["text"])
	assert.NotNil(t, block["cache_control"])
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	client := NewClient("test-key", ts.URL)
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     DefaultModel,
		MaxTokens: 10,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
}

func TestSDKClient_Ping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "/models")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"claude-haiku-4-5-20251001","type":"model","display_name":"Haiku","created_at":"2025-10-01T00:00:00Z"}],"has_more":false,"first_id":"a","last_id":"a"}`)) //nolint:errcheck
	}))
	defer ts.Close()

	require.NoError(t, NewClient("test-key", ts.URL).Ping(context.Background()))
}

func TestSDKClient_PingUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	err := NewClient("bad", ts.URL).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: list models")
}

func TestFromSDKMessage(t *testing.T) {
	resp := fromSDKMessage(&sdk.Message{
		ID:         "msg_1",
		Model:      DefaultModel,
		StopReason: "end_turn",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Hello "},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: "world"},
		},
		Usage: sdk.Usage{InputTokens: 100, OutputTokens: 50, CacheCreationInputTokens: 20},
	})
	require.Len(t, resp.Content, 3)
	assert.Equal(t, "Hello world", resp.Text())
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(20), resp.Usage.CacheCreationInputTokens)
}

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
		{Role: "other", Content: "x"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
	assert.Equal(t, sdk.MessageParamRoleUser, out[2].Role)
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("prompt", "")
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, DefaultCacheTTL, blocks[0].CacheControl.TTL)

	blocks = BuildCachedSystemBlocks("prompt", "1h")
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)

	sys := toSDKSystemBlocks(blocks)
	require.Len(t, sys, 1)
	assert.Equal(t, "prompt", sys[0].Text)
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 18.00, usage.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.InDelta(t, 6.00, usage.EstimateCost(DefaultModel), 0.001)
	assert.Equal(t, 0.0, usage.EstimateCost("unknown-model"))

	cached := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	// write 1.25 + read 0.10 at $1/MTok
	assert.InDelta(t, 1.35, cached.EstimateCost(DefaultModel), 0.001)
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 100, OutputTokens: 50}.LogCost(DefaultModel, "assess")
		TokenUsage{}.LogCost("unknown-model", "")
	})
}
