// Package assess asks an LLM for an advisory second opinion on matched
// customer/shell pairs. Assessments never change a match; failures produce a
// zero-confidence payload instead of an error.
package assess

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/internal/resilience"
)

// Config bounds the assessment worker pool.
type Config struct {
	// Concurrency is the number of calls in flight. Default: 10.
	Concurrency int
	// BatchSize is the number of pairs per batch. Default: 10.
	BatchSize int
	// CallDelay is the pause each worker takes between calls, enforced as a
	// shared limit of Concurrency calls per CallDelay. Default: 1s.
	CallDelay time.Duration
	// BatchDelay is the pause between batches. Default: 2s.
	BatchDelay time.Duration
	Retry      resilience.RetryConfig
	Breaker    resilience.CircuitBreakerConfig
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.CallDelay < 0 {
		c.CallDelay = 0
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "assess"
	}
	if c.Breaker.ShouldTrip == nil {
		c.Breaker.ShouldTrip = resilience.IsTransient
	}
	return c
}

// DefaultConfig mirrors the pacing the assessment APIs tolerate.
func DefaultConfig() Config {
	return Config{
		Concurrency: 10,
		BatchSize:   10,
		CallDelay:   time.Second,
		BatchDelay:  2 * time.Second,
		Retry:       resilience.DefaultRetryConfig(),
	}
}

// Assessor runs assessments against one Provider. It is safe for
// concurrent use.
type Assessor struct {
	provider Provider
	cfg      Config
	breaker  *resilience.CircuitBreaker
	limiter  *rate.Limiter
}

// New creates an Assessor.
func New(p Provider, cfg Config) *Assessor {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.CallDelay > 0 {
		limit = rate.Every(cfg.CallDelay / time.Duration(cfg.Concurrency))
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger(p.Name(), "assess")
	}
	return &Assessor{
		provider: p,
		cfg:      cfg,
		breaker:  resilience.NewCircuitBreaker(cfg.Breaker),
		limiter:  rate.NewLimiter(limit, cfg.Concurrency),
	}
}

// Provider returns the provider name.
func (a *Assessor) Provider() string {
	return a.provider.Name()
}

// Model returns the provider's model.
func (a *Assessor) Model() string {
	return a.provider.Model()
}

// TestConnection checks the provider credentials.
func (a *Assessor) TestConnection(ctx context.Context) (string, error) {
	return a.provider.Ping(ctx)
}

// Assess returns the model's opinion on m. Errors are folded into the
// returned Assessment.
func (a *Assessor) Assess(ctx context.Context, m model.MatchResult) model.Assessment {
	user, err := UserPrompt(m)
	if err != nil {
		return Failed(a.provider.Name(), err)
	}

	text, err := resilience.DoVal(ctx, a.cfg.Retry, func(ctx context.Context) (string, error) {
		return resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (string, error) {
			return a.provider.Complete(ctx, SystemPrompt, user)
		})
	})
	if err != nil {
		zap.L().Warn("assess: call failed",
			zap.String("customer_id", m.Customer.ID),
			zap.String("provider", a.provider.Name()),
			zap.String("class", resilience.ClassifyError(err)),
			zap.Error(err),
		)
		return Failed(a.provider.Name(), err)
	}

	confidence, bullets, err := ParseResponse(text)
	if err != nil {
		zap.L().Warn("assess: unusable response",
			zap.String("customer_id", m.Customer.ID),
			zap.Error(err),
		)
		return Failed(a.provider.Name(), err)
	}
	return model.Assessment{
		Confidence: confidence,
		Bullets:    bullets,
		Success:    true,
		Provider:   a.provider.Name(),
	}
}

// Batch assesses every match, keyed by customer ID. Pairs are processed in
// batches of BatchSize with at most Concurrency calls in flight; one pair
// failing never cancels the others. When ctx ends, the pairs assessed so far
// are returned with the context error.
func (a *Assessor) Batch(ctx context.Context, matches []model.MatchResult) (map[string]model.Assessment, error) {
	results := make([]model.Assessment, len(matches))
	done := make([]bool, len(matches))
	var failures atomic.Int64
	start := time.Now()

	batches := (len(matches) + a.cfg.BatchSize - 1) / a.cfg.BatchSize
	for b := 0; b < batches; b++ {
		if ctx.Err() != nil {
			break
		}
		lo := b * a.cfg.BatchSize
		hi := min(lo+a.cfg.BatchSize, len(matches))

		var g errgroup.Group
		g.SetLimit(a.cfg.Concurrency)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				if err := a.limiter.Wait(ctx); err != nil {
					return nil
				}
				results[i] = a.Assess(ctx, matches[i])
				done[i] = true
				if !results[i].Success {
					failures.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Debug("assess: batch complete",
			zap.Int("batch", b+1),
			zap.Int("batches", batches),
			zap.Int("pairs", hi-lo),
		)

		if b < batches-1 && a.cfg.BatchDelay > 0 {
			t := time.NewTimer(a.cfg.BatchDelay)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
	}

	out := make(map[string]model.Assessment, len(matches))
	for i, m := range matches {
		if done[i] {
			out[m.Customer.ID] = results[i]
		}
	}

	zap.L().Info("assess: completed",
		zap.String("provider", a.provider.Name()),
		zap.Int("pairs", len(matches)),
		zap.Int("assessed", len(out)),
		zap.Int64("failures", failures.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return out, eris.Wrap(err, "assess: batch interrupted")
	}
	return out, nil
}
