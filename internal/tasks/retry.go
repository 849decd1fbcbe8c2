package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/releaseradar/internal/services"
)

const (
	// DefaultMaxRetries is the retry budget per logical call, not counting
	// the initial attempt.
	DefaultMaxRetries = 3

	// DefaultBaseDelay seeds the exponential backoff schedule and serves as
	// the fallback wait when a rate-limited response carries no
	// server-requested delay.
	DefaultBaseDelay = 2 * time.Second
)

// Retrier executes catalog calls with classification-driven retries.
//
// Rate-limited failures wait out the server-requested delay; server and
// transport failures back off exponentially from the base delay. Client
// errors (including not-found) are final and surface immediately.
type Retrier struct {
	maxRetries int
	baseDelay  time.Duration
	profiler   Profiler
	onCall     func(operation string)

	// sleep is swapped out in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retry executor. maxRetries <= 0 and baseDelay <= 0
// fall back to the defaults. onCall, when non-nil, is invoked once per
// physical attempt so callers can count API traffic.
func NewRetrier(maxRetries int, baseDelay time.Duration, profiler Profiler, onCall func(operation string)) *Retrier {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if profiler == nil {
		profiler = nopProfiler{}
	}
	if onCall == nil {
		onCall = func(string) {}
	}

	return &Retrier{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		profiler:   profiler,
		onCall:     onCall,
		sleep:      sleepContext,
	}
}

// Do runs fn, retrying retryable failures until success or the retry budget
// is spent. operation labels the call for counters and logs.
func (r *Retrier) Do(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.onCall(operation)
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}
		if attempt == r.maxRetries {
			break
		}

		delay := r.baseDelay << attempt
		if apiErr.Kind == services.KindRateLimited {
			delay = r.baseDelay
			if apiErr.RetryAfter > 0 {
				delay = apiErr.RetryAfter
			}
		}

		r.profiler.Retry(apiErr.Kind.String())
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.maxRetries+1, lastErr)
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
