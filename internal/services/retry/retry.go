// Package retry implements the bounded exponential-backoff policy applied to
// transient collaborator failures. The orchestrator itself never retries; a
// stage either fully succeeds or is conclusively failed before the state
// machine advances.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

const (
	// DefaultAttempts is the attempt budget applied when none is configured.
	DefaultAttempts = 3
	// DefaultBaseDelay is the first backoff delay; subsequent delays double.
	DefaultBaseDelay = time.Second
)

// Policy executes attempt functions with a fixed budget and exponential
// backoff (base, 2x, 4x, ...). Validation and fatal errors short-circuit.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration

	// Sleeper overrides how backoff waits are performed (used in tests).
	Sleeper func(time.Duration)
}

// New returns a policy with the supplied budget, falling back to defaults for
// non-positive values.
func New(attempts int, baseDelay time.Duration) Policy {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return Policy{Attempts: attempts, BaseDelay: baseDelay}
}

// Do runs fn up to the policy's attempt budget. Each failed attempt is logged
// with the computed delay before waiting. After the budget is exhausted the
// returned error names the stage and the attempt count and wraps the last
// failure.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, stage string, fn func(context.Context) error) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !services.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.delayFor(attempt)
		logger.Warn("stage attempt failed; backing off",
			logging.String(logging.FieldStage, stage),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("stage %s failed after %d attempts: %w", stage, attempts, lastErr)
}

// delayFor returns the wait before the attempt following attemptIndex:
// base for the first retry, then doubling (1s, 2s, 4s, ...).
func (p Policy) delayFor(attemptIndex int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	delay := base
	for i := 1; i < attemptIndex; i++ {
		delay *= 2
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
