package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/releaseradar/internal/services"
)

// stubSleeper records requested delays without waiting.
type stubSleeper struct {
	delays []time.Duration
	err    error
}

func (s *stubSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func newTestRetrier(maxRetries int, onCall func(string)) (*Retrier, *stubSleeper) {
	r := NewRetrier(maxRetries, DefaultBaseDelay, nil, onCall)
	sleeper := &stubSleeper{}
	r.sleep = sleeper.sleep
	return r, sleeper
}

func serverError() error {
	return &services.APIError{Kind: services.KindServer, Status: 500, Message: "server error"}
}

func TestRetrier(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeds First Attempt", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
		if len(sleeper.delays) != 0 {
			t.Errorf("expected no sleeps, got %v", sleeper.delays)
		}
	})

	t.Run("Retries Server Error Then Succeeds", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			if attempts == 1 {
				return serverError()
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected eventual success, got %v", err)
		}
		if attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", attempts)
		}
		if len(sleeper.delays) != 1 || sleeper.delays[0] != 2*time.Second {
			t.Errorf("expected one base-delay sleep, got %v", sleeper.delays)
		}
	})

	t.Run("Exponential Backoff Until Exhaustion", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			return serverError()
		})
		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if attempts != 4 {
			t.Errorf("expected 4 attempts (1 + 3 retries), got %d", attempts)
		}

		want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
		if len(sleeper.delays) != len(want) {
			t.Fatalf("expected %d sleeps, got %v", len(want), sleeper.delays)
		}
		for i, d := range want {
			if sleeper.delays[i] != d {
				t.Errorf("sleep %d: expected %s, got %s", i, d, sleeper.delays[i])
			}
		}

		var apiErr *services.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("expected wrapped APIError, got %v", err)
		}
	})

	t.Run("Rate Limit Honors Retry-After", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			if attempts == 1 {
				return &services.APIError{
					Kind:       services.KindRateLimited,
					Status:     429,
					RetryAfter: 7 * time.Second,
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected eventual success, got %v", err)
		}
		if len(sleeper.delays) != 1 || sleeper.delays[0] != 7*time.Second {
			t.Errorf("expected server-requested 7s sleep, got %v", sleeper.delays)
		}
	})

	t.Run("Rate Limit Without Retry-After Uses Base Delay", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			if attempts == 1 {
				return &services.APIError{Kind: services.KindRateLimited, Status: 429}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected eventual success, got %v", err)
		}
		if len(sleeper.delays) != 1 || sleeper.delays[0] != 2*time.Second {
			t.Errorf("expected base delay sleep, got %v", sleeper.delays)
		}
	})

	t.Run("Client Error Is Final", func(t *testing.T) {
		attempts := 0
		r, sleeper := newTestRetrier(3, nil)

		err := r.Do(ctx, "op", func() error {
			attempts++
			return &services.APIError{Kind: services.KindClient, Status: 400}
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if attempts != 1 {
			t.Errorf("expected no retries for client error, got %d attempts", attempts)
		}
		if len(sleeper.delays) != 0 {
			t.Errorf("expected no sleeps, got %v", sleeper.delays)
		}
	})

	t.Run("Unclassified Error Is Final", func(t *testing.T) {
		attempts := 0
		r, _ := newTestRetrier(3, nil)

		wantErr := errors.New("broken pipe in disguise")
		err := r.Do(ctx, "op", func() error {
			attempts++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("expected original error, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Cancelled Context Stops Retrying", func(t *testing.T) {
		r, sleeper := newTestRetrier(3, nil)
		sleeper.err = context.Canceled

		err := r.Do(ctx, "op", func() error {
			return serverError()
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Counts Every Physical Attempt", func(t *testing.T) {
		var ops []string
		r, _ := newTestRetrier(2, func(operation string) {
			ops = append(ops, operation)
		})

		_ = r.Do(ctx, "list_albums", func() error {
			return serverError()
		})
		if len(ops) != 3 {
			t.Errorf("expected 3 counted calls, got %d", len(ops))
		}
		for _, op := range ops {
			if op != "list_albums" {
				t.Errorf("unexpected operation label: %s", op)
			}
		}
	})
}
