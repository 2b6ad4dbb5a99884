package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fast(n int) Config {
	return Config{MaxAttempts: n, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fast(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesRetryable(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fast(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Retryable(errors.New("flaky"))
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("got %q, %v", v, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnFatal(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, err := Do(context.Background(), fast(5), func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	base := errors.New("down")
	calls := 0
	_, err := Do(context.Background(), fast(2), func(context.Context) (int, error) {
		calls++
		return 0, Retryable(base)
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if err != base {
		t.Errorf("err = %v, want unwrapped base error", err)
	}
	if IsRetryable(err) {
		t.Error("returned error still marked retryable")
	}
}

func TestOnceNeverRetries(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), Once(), func(context.Context) (int, error) {
		calls++
		return 0, Retryable(errors.New("x"))
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 10, InitialWait: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func(context.Context) (int, error) {
			calls++
			return 0, Retryable(errors.New("x"))
		})
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestWaitCapped(t *testing.T) {
	cfg := Config{InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 10}
	if w := cfg.Wait(1); w != time.Second {
		t.Errorf("Wait(1) = %v", w)
	}
	if w := cfg.Wait(4); w != 3*time.Second {
		t.Errorf("Wait(4) = %v, want cap", w)
	}
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
