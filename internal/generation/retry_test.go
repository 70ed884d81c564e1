package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	attempts, err := p.Do(context.Background(), nil, "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestPolicyDoExhausts(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	sentinel := errors.New("boom")
	calls := 0
	attempts, err := p.Do(context.Background(), nil, "op", func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestPolicyDoNonRetryableStopsEarly(t *testing.T) {
	sentinel := errors.New("fatal")
	p := Policy{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, sentinel) },
	}

	calls := 0
	attempts, err := p.Do(context.Background(), nil, "op", func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestPolicyDoContextCancelAbortsBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Do(ctx, nil, "op", func() error {
			calls++
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do did not abort the backoff sleep on cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestPolicyDoZeroAttemptsClampedToOne(t *testing.T) {
	p := Policy{MaxAttempts: 0}

	calls := 0
	attempts, err := p.Do(context.Background(), nil, "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDefaultPolicyBudget(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Delay)

	rp := ResourcePassPolicy()
	assert.Equal(t, 2, rp.MaxAttempts)
	assert.Equal(t, 2*time.Second, rp.Delay)
}
