package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/assess"
	"github.com/sells-group/shell-match/internal/config"
	"github.com/sells-group/shell-match/internal/domaincheck"
	"github.com/sells-group/shell-match/internal/pipeline"
	"github.com/sells-group/shell-match/internal/resilience"
	"github.com/sells-group/shell-match/internal/store"
	anthropicpkg "github.com/sells-group/shell-match/pkg/anthropic"
	openaipkg "github.com/sells-group/shell-match/pkg/openai"
	"github.com/sells-group/shell-match/pkg/salesforce"
)

// appEnv holds the clients and the pipeline shared by serve and match.
// Salesforce, Assessor and Store are nil when not configured.
type appEnv struct {
	Salesforce salesforce.Client
	Assessor   *assess.Assessor
	Store      store.Store
	Domains    *domaincheck.Checker
	Pipeline   *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// envOptions selects which optional parts initEnv builds.
type envOptions struct {
	// RequireSalesforce fails when credentials are missing instead of
	// leaving Salesforce nil.
	RequireSalesforce bool
	Assess            bool
}

// initEnv builds the store, API clients and pipeline from cfg. Callers
// should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, opts envOptions) (*appEnv, error) {
	if err := c.Validate("store"); err != nil {
		return nil, err
	}
	if opts.RequireSalesforce {
		if err := c.Validate("salesforce"); err != nil {
			return nil, err
		}
	}
	if opts.Assess {
		if err := c.Validate("assess"); err != nil {
			return nil, err
		}
	}

	domains, err := domaincheck.Load(c.Domains.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load bad-domain list")
	}

	env := &appEnv{Domains: domains}

	if c.Salesforce.Configured() {
		sf, err := initSalesforce(c)
		if err != nil {
			return nil, err
		}
		env.Salesforce = sf
	} else {
		zap.L().Warn("salesforce credentials not set, Salesforce lookups disabled")
	}

	if opts.Assess {
		a, err := initAssessor(c)
		if err != nil {
			return nil, err
		}
		env.Assessor = a
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	env.Store = st

	env.Pipeline = pipeline.New(env.Salesforce, env.Domains, env.Assessor, env.Store)
	return env, nil
}

// initStore opens the configured run store. A nil Store means persistence
// is off.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		MaxConns:    c.Store.MaxConns,
		MinConns:    c.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	if st == nil {
		zap.L().Info("run store disabled")
	}
	return st, nil
}

// initSalesforce builds a Session. The first API call logs in.
func initSalesforce(c *config.Config) (salesforce.Client, error) {
	creds := salesforce.Credentials{
		LoginURL:      c.Salesforce.LoginURL,
		Username:      c.Salesforce.Username,
		Password:      c.Salesforce.Password,
		SecurityToken: c.Salesforce.SecurityToken,
		ClientID:      c.Salesforce.ClientID,
		ClientSecret:  c.Salesforce.ClientSecret,
		AccessToken:   c.Salesforce.AccessToken,
	}
	if err := creds.LoadPrivateKey(c.Salesforce.KeyPath); err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}
	return salesforce.NewSession(creds, c.Salesforce.SessionMaxAge,
		salesforce.WithRateLimit(c.Salesforce.RateLimit)), nil
}

// initProvider builds the configured LLM provider.
func initProvider(c *config.Config) (assess.Provider, error) {
	pc := assess.ProviderConfig{
		MaxTokens:   c.Assess.MaxTokens,
		Temperature: c.Assess.Temperature,
	}
	switch c.Assess.Provider {
	case assess.ProviderAnthropic:
		pc.Model = c.Anthropic.Model
		return assess.NewAnthropicProvider(anthropicpkg.NewClient(c.Anthropic.Key, c.Anthropic.BaseURL), pc), nil
	case assess.ProviderOpenAI:
		pc.Model = c.OpenAI.Model
		return assess.NewOpenAIProvider(openaipkg.NewClient(c.OpenAI.Key, c.OpenAI.BaseURL), pc), nil
	default:
		return nil, eris.Errorf("unsupported assess provider %q", c.Assess.Provider)
	}
}

// initAssessor wraps the provider in the bounded assessment pool.
func initAssessor(c *config.Config) (*assess.Assessor, error) {
	p, err := initProvider(c)
	if err != nil {
		return nil, err
	}
	a := assess.New(p, assess.Config{
		Concurrency: c.Assess.Concurrency,
		BatchSize:   c.Assess.BatchSize,
		CallDelay:   c.Assess.CallDelay,
		BatchDelay:  c.Assess.BatchDelay,
		Retry:       resilience.FromSettings(c.Assess.RetryAttempts, 0, 0),
	})
	zap.L().Info("llm assessment enabled",
		zap.String("provider", a.Provider()),
		zap.String("model", a.Model()),
	)
	return a, nil
}
