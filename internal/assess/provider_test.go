package assess

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shell-match/internal/resilience"
	"github.com/sells-group/shell-match/pkg/anthropic"
	"github.com/sells-group/shell-match/pkg/openai"
)

type fakeAnthropic struct {
	req     anthropic.MessageRequest
	reply   string
	err     error
	pingErr error
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
	}, nil
}

func (f *fakeAnthropic) Ping(context.Context) error { return f.pingErr }

type fakeOpenAI struct {
	req    openai.ChatRequest
	reply  string
	err    error
	models int
}

func (f *fakeOpenAI) Complete(_ context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatResponse{Content: f.reply}, nil
}

func (f *fakeOpenAI) CountModels(context.Context) (int, error) { return f.models, f.err }

func TestAnthropicProvider_Complete(t *testing.T) {
	t.Parallel()

	fc := &fakeAnthropic{reply: goodReply}
	p := NewAnthropicProvider(fc, ProviderConfig{Temperature: 0.1})

	got, err := p.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, goodReply, got)
	assert.Equal(t, ProviderAnthropic, p.Name())
	assert.Equal(t, anthropic.DefaultModel, p.Model())

	assert.Equal(t, int64(1000), fc.req.MaxTokens)
	require.Len(t, fc.req.System, 1)
	assert.Equal(t, "system text", fc.req.System[0].Text)
	assert.NotNil(t, fc.req.System[0].CacheControl)
	require.Len(t, fc.req.Messages, 1)
	assert.Equal(t, "user text", fc.req.Messages[0].Content)
	require.NotNil(t, fc.req.Temperature)
	assert.InDelta(t, 0.1, *fc.req.Temperature, 1e-9)
}

func TestAnthropicProvider_PlainErrorIsPermanent(t *testing.T) {
	t.Parallel()

	p := NewAnthropicProvider(&fakeAnthropic{err: errors.New("boom")}, ProviderConfig{})
	_, err := p.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestAnthropicProvider_Ping(t *testing.T) {
	t.Parallel()

	msg, err := NewAnthropicProvider(&fakeAnthropic{}, ProviderConfig{}).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Anthropic connection successful", msg)

	_, err = NewAnthropicProvider(&fakeAnthropic{pingErr: errors.New("401")}, ProviderConfig{}).Ping(context.Background())
	assert.Error(t, err)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	fc := &fakeOpenAI{reply: goodReply}
	p := NewOpenAIProvider(fc, ProviderConfig{Model: "gpt-4o-mini", MaxTokens: 500, Temperature: 0.1})

	got, err := p.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, goodReply, got)
	assert.Equal(t, ProviderOpenAI, p.Name())
	assert.Equal(t, "gpt-4o-mini", fc.req.Model)
	assert.Equal(t, 500, fc.req.MaxTokens)
	assert.True(t, fc.req.JSON)
	assert.Equal(t, "system text", fc.req.System)
}

func TestOpenAIProvider_Ping(t *testing.T) {
	t.Parallel()

	msg, err := NewOpenAIProvider(&fakeOpenAI{models: 42}, ProviderConfig{}).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OpenAI connection successful - Found 42 available models", msg)

	_, err = NewOpenAIProvider(&fakeOpenAI{}, ProviderConfig{}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No models available")
}
