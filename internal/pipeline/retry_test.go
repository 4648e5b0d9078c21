package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func captureSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	orig := sleep
	t.Cleanup(func() { sleep = orig })

	var delays []time.Duration
	sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return &delays
}

func TestRetryReturnsAfterTransientFailures(t *testing.T) {
	delays := captureSleeps(t)

	calls := 0
	v, err := Retry(context.Background(), 5, 100*time.Millisecond, func() (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if v != "ok" {
		t.Fatalf("unexpected value: %q", v)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("delay %d = %s, want %s", i, (*delays)[i], d)
		}
	}
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	delays := captureSleeps(t)

	calls := 0
	lastErr := errors.New("always broken")
	_, err := Retry(context.Background(), 3, 50*time.Millisecond, func() (int, error) {
		calls++
		return 0, lastErr
	})
	if !errors.Is(err, lastErr) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	// maxAttempts - 1 delays, doubling each time
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("delay %d = %s, want %s", i, (*delays)[i], d)
		}
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	orig := sleep
	t.Cleanup(func() { sleep = orig })
	sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	calls := 0
	_, err := Retry(context.Background(), 5, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt after cancel, got %d", calls)
	}
}
