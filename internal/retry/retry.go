// internal/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/apperrors"
)

// Do invokes op up to maxAttempts times with a fixed delay between
// attempts. A cancellation during the inter-attempt sleep aborts
// immediately with the wrapped context error. After exhausting all
// attempts it returns a RetriesExhaustedError wrapping the last failure.
func Do[T any](ctx context.Context, maxAttempts int, delay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			log.Printf("⚠️ Attempt %d of %d failed: %v. Retrying in %s...", attempt, maxAttempts, firstLine(err), delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-timer.C:
			}
		} else {
			log.Printf("🚫 All %d attempts failed. Giving up. Last error: %v", maxAttempts, firstLine(err))
		}
	}

	return zero, &apperrors.RetriesExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func firstLine(err error) string {
	msg := err.Error()
	for i, r := range msg {
		if r == '\n' {
			return msg[:i]
		}
	}
	return msg
}
