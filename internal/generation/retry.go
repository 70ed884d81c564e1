package generation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy is the single retry abstraction injected into the client. Every
// generation call site shares it instead of re-implementing retry loops.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed pause between attempts. No jitter.
	Delay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// nil retries on any error.
	Retryable func(error) bool
}

// DefaultPolicy is the standard generation retry budget: three attempts
// with a fixed two-second backoff, retrying on any error.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// ResourcePassPolicy is the shorter budget used by the non-critical outline
// resource-analysis pass.
func ResourcePassPolicy() Policy {
	return Policy{MaxAttempts: 2, Delay: 2 * time.Second}
}

// Do runs fn under the policy. The last error is returned once attempts are
// exhausted. Context cancellation aborts both the call and the backoff
// sleep immediately.
func (p Policy) Do(ctx context.Context, logger *zap.Logger, op string, fn func() error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, err
		}

		lastErr = fn()
		if lastErr == nil {
			return i, nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return i, lastErr
		}
		if i == attempts {
			break
		}

		if logger != nil {
			logger.Warn("generation attempt failed, retrying",
				zap.String("op", op),
				zap.Int("attempt", i),
				zap.Duration("delay", p.Delay),
				zap.Error(lastErr))
		}

		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return i, ctx.Err()
		}
	}
	return attempts, lastErr
}
