// Package openai wraps the OpenAI chat completions API behind a small
// interface used by the match assessor.
package openai

import (
	"context"

	"github.com/rotisserie/eris"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Client defines the OpenAI API operations used by the assessor.
type Client interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// CountModels lists the models visible to the key.
	CountModels(ctx context.Context) (int, error)
}

// ChatRequest is a system + user prompt completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// JSON asks the API to return a single JSON object.
	JSON bool
}

// ChatResponse is the first choice of a completion.
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LogCost logs token usage.
func (u Usage) LogCost(model, phase string) {
	zap.L().Info("cost attribution",
		zap.String("provider", "openai"),
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int("input_tokens", u.PromptTokens),
		zap.Int("output_tokens", u.CompletionTokens),
		zap.Int("total_tokens", u.TotalTokens),
	)
}

type sdkClient struct {
	client *goopenai.Client
}

// NewClient creates a Client. baseURL may be empty for the public API.
func NewClient(apiKey, baseURL string) Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &sdkClient{client: goopenai.NewClientWithConfig(cfg)}
}

func (c *sdkClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	creq := goopenai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		creq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: completion returned no choices")
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *sdkClient) CountModels(ctx context.Context) (int, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "openai: list models")
	}
	return len(list.Models), nil
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var apiErr *goopenai.APIError
	if eris.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if eris.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
