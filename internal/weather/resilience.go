package weather

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig configures exponential backoff retry behavior.
type RetryConfig struct {
	InitialInterval     time.Duration // Initial retry interval (default 200ms)
	MaxInterval         time.Duration // Maximum retry interval (default 5s)
	MaxElapsedTime      time.Duration // Maximum total retry time (default 30s)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     200 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// BreakerRegistry hands out one circuit breaker per upstream host.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *log.Logger
}

// NewBreakerRegistry creates an empty registry. A nil logger means log.Default().
func NewBreakerRegistry(logger *log.Logger) *BreakerRegistry {
	if logger == nil {
		logger = log.Default()
	}
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   logger,
	}
}

// Get returns the breaker for host, creating it on first use.
func (r *BreakerRegistry) Get(host string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[host]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation and client-side mistakes say nothing about upstream health.
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return !retryable(err)
		},
	})

	r.breakers[host] = cb
	return cb
}

// callWithRetry runs fn through cb, retrying transient failures with exponential backoff.
func callWithRetry[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var out T

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil || !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		out = result.(T)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval
	policy.MaxElapsedTime = cfg.MaxElapsedTime
	policy.Multiplier = cfg.Multiplier
	policy.RandomizationFactor = cfg.RandomizationFactor

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	return out, err
}

// retryable reports whether err is worth another attempt: transport failures,
// 5xx replies and rate limiting. Everything else is permanent.
func retryable(err error) bool {
	if errors.Is(err, ErrNoLocation) || errors.Is(err, ErrNoConditions) || errors.Is(err, errDecode) {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == 429
	}
	return true
}
