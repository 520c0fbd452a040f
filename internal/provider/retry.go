package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// RetryConfig holds retry configuration for backend calls.
type RetryConfig struct {
	MaxRetries        int           // Maximum number of retries (default: 2)
	InitialBackoff    time.Duration // Initial backoff duration (default: 500ms)
	MaxBackoff        time.Duration // Maximum backoff duration (default: 8s)
	BackoffMultiplier float64       // Backoff multiplier (default: 2.0)
}

// DefaultRetryConfig returns the default retry configuration. Analysis
// is advisory, so the budget is small: a suggestion that arrives a
// minute late is worthless.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// retryWithBackoff executes fn with retry and exponential backoff. The
// per-call timeout comes from ctx; exhausting retries on timeouts maps
// to ErrTimeout so the pipeline can degrade cleanly.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetriableError(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		fmt.Fprintf(os.Stderr, "provider %s attempt %d failed, retrying in %v: %v\n",
			operation, attempt+1, backoff, err)

		select {
		case <-ctx.Done():
			return wrapDeadline(ctx.Err(), operation)
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return wrapDeadline(lastErr, operation)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.MaxRetries+1, lastErr)
}

func wrapDeadline(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, operation)
	}
	return err
}

// isRetriableError reports whether an error is transient. Auth and
// request-shape failures never improve on retry.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"rate limit",
		"overloaded",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 529",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
