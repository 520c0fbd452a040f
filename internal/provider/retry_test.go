package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retriable bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"rate limited", errors.New("API error: rate limit exceeded"), true},
		{"server overloaded", errors.New("status 529: overloaded"), true},
		{"bad gateway", errors.New("unexpected status 502"), true},
		{"auth failure", errors.New("invalid api key"), false},
		{"bad request", errors.New("status 400: malformed body"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retriable, isRetriableError(tt.err))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			return errors.New("invalid api key")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("deadline maps to ErrTimeout", func(t *testing.T) {
		err := retryWithBackoff(context.Background(), cfg, "op", func(context.Context) error {
			return fmt.Errorf("call failed: %w", context.DeadlineExceeded)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("canceled context stops the backoff wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retryWithBackoff(ctx, RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Minute,
			MaxBackoff:        time.Minute,
			BackoffMultiplier: 2.0,
		}, "op", func(context.Context) error {
			calls++
			cancel()
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
