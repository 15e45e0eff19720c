package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reelforge/internal/services"
)

func transientErr(msg string) error {
	return services.Wrap(services.ErrTransient, "transcribing", "request", "", errors.New(msg))
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	policy := New(3, time.Second)
	calls := 0
	err := policy.Do(context.Background(), nil, "transcribing", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesWithExponentialDelays(t *testing.T) {
	var delays []time.Duration
	policy := New(3, time.Second)
	policy.Sleeper = func(d time.Duration) { delays = append(delays, d) }

	calls := 0
	err := policy.Do(context.Background(), nil, "transcribing", func(context.Context) error {
		calls++
		if calls < 3 {
			return transientErr("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	policy := New(3, time.Second)
	policy.Sleeper = func(time.Duration) {}

	calls := 0
	err := policy.Do(context.Background(), nil, "uploading", func(context.Context) error {
		calls++
		return transientErr("still down")
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !strings.Contains(err.Error(), "stage uploading failed after 3 attempts") {
		t.Fatalf("aggregated error missing stage/attempt detail: %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("aggregated error should wrap last failure: %v", err)
	}
}

func TestDoDoesNotRetryValidationErrors(t *testing.T) {
	policy := New(3, time.Second)
	policy.Sleeper = func(time.Duration) { t.Fatal("should not sleep for validation errors") }

	calls := 0
	wantErr := services.Wrap(services.ErrValidation, "generating-plan", "parse", "bad shape", nil)
	err := policy.Do(context.Background(), nil, "generating-plan", func(context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := New(3, time.Second)
	policy.Sleeper = func(time.Duration) { cancel() }

	calls := 0
	err := policy.Do(ctx, nil, "rendering", func(context.Context) error {
		calls++
		return transientErr("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	policy := New(0, 0)
	if policy.Attempts != DefaultAttempts {
		t.Fatalf("attempts = %d, want %d", policy.Attempts, DefaultAttempts)
	}
	if policy.BaseDelay != DefaultBaseDelay {
		t.Fatalf("base delay = %v, want %v", policy.BaseDelay, DefaultBaseDelay)
	}
}
