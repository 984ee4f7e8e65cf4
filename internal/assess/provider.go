package assess

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/resilience"
	"github.com/sells-group/shell-match/pkg/anthropic"
	"github.com/sells-group/shell-match/pkg/openai"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Provider completes one validator prompt with an LLM.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, user string) (string, error)
	// Ping checks credentials and returns a human-readable status line.
	Ping(ctx context.Context) (string, error)
}

// ProviderConfig holds the per-call settings shared by providers.
type ProviderConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type anthropicProvider struct {
	client anthropic.Client
	cfg    ProviderConfig
}

// NewAnthropicProvider assesses with Claude. The validator prompt is sent
// as a cached system block.
func NewAnthropicProvider(client anthropic.Client, cfg ProviderConfig) Provider {
	if cfg.Model == "" {
		cfg.Model = anthropic.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	return &anthropicProvider{client: client, cfg: cfg}
}

func (p *anthropicProvider) Name() string  { return ProviderAnthropic }
func (p *anthropicProvider) Model() string { return p.cfg.Model }

func (p *anthropicProvider) Complete(ctx context.Context, system, user string) (string, error) {
	temp := p.cfg.Temperature
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.cfg.Model,
		MaxTokens:   int64(p.cfg.MaxTokens),
		System:      anthropic.BuildCachedSystemBlocks(system, ""),
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		var apiErr *sdk.Error
		if eris.As(err, &apiErr) {
			return "", resilience.FromStatus(err, apiErr.StatusCode)
		}
		return "", err
	}
	resp.Usage.LogCost(p.cfg.Model, "assess")
	return resp.Text(), nil
}

func (p *anthropicProvider) Ping(ctx context.Context) (string, error) {
	if err := p.client.Ping(ctx); err != nil {
		return "", err
	}
	return "Anthropic connection successful", nil
}

type openaiProvider struct {
	client openai.Client
	cfg    ProviderConfig
}

// NewOpenAIProvider assesses with an OpenAI chat model in JSON mode.
func NewOpenAIProvider(client openai.Client, cfg ProviderConfig) Provider {
	if cfg.Model == "" {
		cfg.Model = openai.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	return &openaiProvider{client: client, cfg: cfg}
}

func (p *openaiProvider) Name() string  { return ProviderOpenAI }
func (p *openaiProvider) Model() string { return p.cfg.Model }

func (p *openaiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Complete(ctx, openai.ChatRequest{
		Model:       p.cfg.Model,
		System:      system,
		User:        user,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: float32(p.cfg.Temperature),
		JSON:        true,
	})
	if err != nil {
		return "", resilience.FromStatus(err, openai.StatusCode(err))
	}
	resp.Usage.LogCost(p.cfg.Model, "assess")
	return resp.Content, nil
}

func (p *openaiProvider) Ping(ctx context.Context) (string, error) {
	n, err := p.client.CountModels(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", eris.New("OpenAI connection failed - No models available")
	}
	return fmt.Sprintf("OpenAI connection successful - Found %d available models", n), nil
}
