package embedder

import (
	"context"
	"errors"
	"time"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Retry configuration defaults
const (
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// retryWithBackoff executes fn with exponential backoff. Validation and
// configuration errors fail immediately: retrying cannot fix a bad input
// or a missing API key. Retry also stops on context cancellation.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = nextBackoff(backoff, config)
			}
		}
	}
	return zero, lastErr
}

func retryable(err error) bool {
	return !errors.Is(err, types.ErrValidation) && !errors.Is(err, types.ErrNotConfigured)
}

func nextBackoff(current time.Duration, config RetryConfig) time.Duration {
	next := time.Duration(float64(current) * config.Multiplier)
	if next > config.MaxDelay {
		return config.MaxDelay
	}
	return next
}
