package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry with exponential backoff and jitter.
type RetryConfig struct {
	// MaxAttempts counts the first try. 1 disables retries. Default: 3.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps each delay. Default: 30s.
	MaxBackoff time.Duration
	// Multiplier scales the delay per attempt. Default: 2.
	Multiplier float64
	// JitterFraction randomizes each delay by ±fraction.
	JitterFraction float64
	// ShouldRetry overrides IsTransient when set.
	ShouldRetry func(err error) bool
	// OnRetry runs before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry policy used for LLM and CRM calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// FromSettings builds a RetryConfig from configured values; zero values keep
// the defaults.
func FromSettings(maxAttempts int, initialBackoff, maxBackoff time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoff > 0 {
		cfg.InitialBackoff = initialBackoff
	}
	if maxBackoff > 0 {
		cfg.MaxBackoff = maxBackoff
	}
	return cfg
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The last error is returned.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = withDefaults(cfg)
	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !retryable(err) || attempt+1 >= cfg.MaxAttempts {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
		if !sleep(ctx, backoff(attempt, cfg)) {
			return zero, err
		}
	}
}

func withDefaults(cfg RetryConfig) RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := math.Min(float64(cfg.InitialBackoff)*math.Pow(cfg.Multiplier, float64(attempt)), float64(cfg.MaxBackoff))
	if cfg.JitterFraction > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.JitterFraction
	}
	return time.Duration(math.Max(d, 0))
}

// sleep waits for d or ctx, reporting whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryLogger returns an OnRetry callback that logs each attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
