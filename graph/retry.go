package graph

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BackoffStrategy selects how retry delays grow between attempts.
type BackoffStrategy int

const (
	FixedBackoff BackoffStrategy = iota
	ExponentialBackoff
	LinearBackoff
)

// RetryPolicy defines graph-level retry behavior applied to every node.
// An error is retried only when its message contains one of the
// RetryableErrors substrings.
type RetryPolicy struct {
	MaxRetries      int
	BackoffStrategy BackoffStrategy
	RetryableErrors []string

	// BaseDelay is the delay of the first retry. Zero means one second.
	BaseDelay time.Duration
}

func (p *RetryPolicy) retryable(err error) bool {
	if p == nil || err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range p.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (p *RetryPolicy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return base * time.Duration(1<<attempt)
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	default:
		return base
	}
}

// RetryConfig configures retry behavior for a single node, independent of
// the graph-level policy.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: func(_ error) bool {
			return true
		},
	}
}

// retryWrap wraps a node function with per-node retry logic.
func retryWrap[S any](name string, fn func(ctx context.Context, state S) (S, error), config *RetryConfig) func(ctx context.Context, state S) (S, error) {
	return func(ctx context.Context, state S) (S, error) {
		var zero S
		var lastErr error
		delay := config.InitialDelay

		for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			default:
			}

			result, err := fn(ctx, state)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if config.RetryableErrors != nil && !config.RetryableErrors(err) {
				return zero, fmt.Errorf("non-retryable error in %s: %w", name, err)
			}

			if attempt < config.MaxAttempts {
				select {
				case <-time.After(delay):
					delay = min(time.Duration(float64(delay)*config.BackoffFactor), config.MaxDelay)
				case <-ctx.Done():
					return zero, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
				}
			}
		}

		return zero, fmt.Errorf("max retries (%d) exceeded for %s: %w", config.MaxAttempts, name, lastErr)
	}
}
