// Copyright 2026 Peter Edge
//
// All rights reserved.

package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicyDelay(t *testing.T) {
	t.Parallel()
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Second, Jitter: 0.1}
	require.Equal(t, time.Second, policy.delay(0, 0))
	require.Equal(t, 2*time.Second, policy.delay(1, 0))
	require.Equal(t, 8*time.Second, policy.delay(3, 0))
	halfJitter := Policy{MaxAttempts: 5, BaseDelay: time.Second, Jitter: 0.5}
	require.Equal(t, 1250*time.Millisecond, halfJitter.delay(0, 0.5))
	require.Equal(t, 4500*time.Millisecond, halfJitter.delay(2, 1))
	for attempt := range 4 {
		delay := policy.Delay(attempt)
		low := time.Duration(1<<attempt) * time.Second
		require.GreaterOrEqual(t, delay, low)
		require.LessOrEqual(t, delay, low+100*time.Millisecond)
	}
	policy.MaxDelay = 3 * time.Second
	require.Equal(t, 3*time.Second, policy.delay(4, 0))
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultPolicy().Validate())
	require.Error(t, Policy{}.Validate())
	require.Error(t, Policy{MaxAttempts: 1, BaseDelay: -time.Second}.Validate())
	require.Error(t, Policy{MaxAttempts: 1, Jitter: -1}.Validate())
}

func TestRetrySucceedsAfterRetryableErrors(t *testing.T) {
	t.Parallel()
	var attempts []int
	result, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 5, BaseDelay: time.Millisecond},
		func(_ context.Context, attempt int) (string, bool, error) {
			attempts = append(attempts, attempt)
			if attempt < 2 {
				return "", true, errors.New("transient")
			}
			return "ok", false, nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, []int{0, 1, 2}, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	t.Parallel()
	permanent := errors.New("permanent")
	calls := 0
	_, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 5, BaseDelay: time.Millisecond},
		func(context.Context, int) (int, bool, error) {
			calls++
			return 0, false, permanent
		},
	)
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()
	transient := errors.New("transient")
	calls := 0
	_, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(context.Context, int) (int, bool, error) {
			calls++
			return 0, true, transient
		},
	)
	require.ErrorIs(t, err, transient)
	require.ErrorContains(t, err, "failed after 3 attempts")
	require.Equal(t, 3, calls)
}

func TestRetryHonorsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(
		ctx,
		Policy{MaxAttempts: 5, BaseDelay: time.Hour},
		func(context.Context, int) (int, bool, error) {
			calls++
			cancel()
			return 0, true, errors.New("transient")
		},
	)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
