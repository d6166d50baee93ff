// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package backoff provides exponential backoff with jitter for retrying operations.
package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxAttempts is the default maximum number of attempts.
	DefaultMaxAttempts = 5
	// DefaultBaseDelay is the default base delay.
	DefaultBaseDelay = time.Second
	// DefaultJitter is the default jitter factor.
	DefaultJitter = 0.1
)

// Policy configures Retry.
//
// The wait after a failed attempt n (zero-indexed) is
//
//	(2^n + rand[0,1) * Jitter) * BaseDelay
//
// capped at MaxDelay if MaxDelay is positive.
type Policy struct {
	// MaxAttempts is the maximum number of calls, including the first.
	MaxAttempts int
	// BaseDelay scales the exponential delay.
	BaseDelay time.Duration
	// MaxDelay caps the delay if positive.
	MaxDelay time.Duration
	// Jitter is the maximum random addition to the exponent term.
	Jitter float64
}

// DefaultPolicy returns the default Policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Jitter:      DefaultJitter,
	}
}

// Validate returns an error if the Policy cannot be used.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative, got %v", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay must not be negative, got %v", p.MaxDelay)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative, got %v", p.Jitter)
	}
	return nil
}

// Delay returns the wait after the given zero-indexed failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	return p.delay(attempt, rand.Float64())
}

// Retry calls f repeatedly until it succeeds, returns a non-retryable error,
// or the maximum number of attempts is reached. Between attempts, it waits
// according to the Policy.
//
// f returns the result, whether the error is retryable, and any error.
// If retryable is true and err is non-nil, Retry will wait and try again.
// If retryable is false, Retry returns immediately with the error.
func Retry[T any](
	ctx context.Context,
	policy Policy,
	f func(ctx context.Context, attempt int) (T, bool, error),
) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}
	for attempt := range policy.MaxAttempts {
		result, retryable, err := f(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return zero, err
		}
		// Don't wait after the last attempt.
		if attempt == policy.MaxAttempts-1 {
			return zero, fmt.Errorf("failed after %d attempts: %w", policy.MaxAttempts, err)
		}
		timer := time.NewTimer(policy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, fmt.Errorf("failed after %d attempts", policy.MaxAttempts)
}

// *** PRIVATE ***

func (p Policy) delay(attempt int, random float64) time.Duration {
	factor := math.Pow(2, float64(attempt)) + random*p.Jitter
	delay := time.Duration(factor * float64(p.BaseDelay))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
