package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesTransient(t *testing.T) {
	var calls, retries int
	cfg := fastRetry(3)
	cfg.OnRetry = func(int, error) { retries++ }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("overloaded"), 529)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("expected 3 calls and 2 retries, got %d and %d", calls, retries)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(5), func(_ context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("unavailable"), 503)
	})
	if err == nil || err.Error() != "unavailable" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	cfg.OnRetry = func(int, error) { cancel() }

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("timeout"), 504)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	got, err := DoVal(context.Background(), fastRetry(3), func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewTransientError(errors.New("429"), 429)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(0, 0, 0)
	if cfg.MaxAttempts != 3 || cfg.InitialBackoff != 500*time.Millisecond {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	cfg = FromSettings(5, time.Second, 10*time.Second)
	if cfg.MaxAttempts != 5 || cfg.InitialBackoff != time.Second || cfg.MaxBackoff != 10*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 2 * time.Second, Multiplier: 10})
	if d := backoff(5, cfg); d != 2*time.Second {
		t.Errorf("expected capped backoff, got %s", d)
	}
}
