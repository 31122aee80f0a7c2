package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

// scriptedCall replays a fixed sequence of results.
type scriptedCall struct {
	mu      sync.Mutex
	results []any // string or error
	calls   int
}

func (s *scriptedCall) call(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls >= len(s.results) {
		return "", fmt.Errorf("unexpected call %d (only %d results configured)", s.calls+1, len(s.results))
	}
	r := s.results[s.calls]
	s.calls++

	switch v := r.(type) {
	case string:
		return v, nil
	case error:
		return "", v
	default:
		return "", fmt.Errorf("invalid result type: %T", v)
	}
}

func (s *scriptedCall) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func quietRegistry() *BreakerRegistry {
	return NewBreakerRegistry(log.New(io.Discard, "", 0))
}

func TestCallWithRetry_TransientThenSuccess(t *testing.T) {
	s := &scriptedCall{results: []any{
		errors.New("connection reset"),
		&HTTPStatusError{StatusCode: 502},
		"ok",
	}}

	got, err := callWithRetry(context.Background(), quietRegistry().Get("test"), fastRetry, s.call)
	if err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if s.count() != 3 {
		t.Errorf("expected 3 calls, got %d", s.count())
	}
}

func TestCallWithRetry_PermanentErrorsStopImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found status", &HTTPStatusError{StatusCode: 404}},
		{"unauthorized", &HTTPStatusError{StatusCode: 401}},
		{"no location", fmt.Errorf("%w: x", ErrNoLocation)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedCall{results: []any{tt.err, "unreachable"}}
			_, err := callWithRetry(context.Background(), quietRegistry().Get("test"), fastRetry, s.call)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
			if s.count() != 1 {
				t.Errorf("expected 1 call, got %d", s.count())
			}
		})
	}
}

func TestCallWithRetry_CircuitOpens(t *testing.T) {
	s := &scriptedCall{results: make([]any, 50)}
	for i := range s.results {
		s.results[i] = &HTTPStatusError{StatusCode: 500}
	}

	cb := quietRegistry().Get("flaky")
	for range 3 {
		_, _ = callWithRetry(context.Background(), cb, fastRetry, s.call)
		if cb.State() == gobreaker.StateOpen {
			break
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open circuit, got %v", cb.State())
	}

	before := s.count()
	_, err := callWithRetry(context.Background(), cb, fastRetry, s.call)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if s.count() != before {
		t.Error("open circuit should not reach the upstream")
	}
}

func TestCallWithRetry_ContextCancelledStopsRetry(t *testing.T) {
	s := &scriptedCall{results: make([]any, 100)}
	for i := range s.results {
		s.results[i] = errors.New("still down")
	}

	slow := fastRetry
	slow.InitialInterval = 50 * time.Millisecond
	slow.MaxElapsedTime = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := callWithRetry(ctx, quietRegistry().Get("test"), slow, s.call)
	if err == nil {
		t.Fatal("expected error due to context cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("callWithRetry took %v, context should stop retries", elapsed)
	}
}

func TestBreakerRegistry_PerHost(t *testing.T) {
	registry := quietRegistry()

	a1 := registry.Get("dataservice.accuweather.com")
	a2 := registry.Get("dataservice.accuweather.com")
	b := registry.Get("localhost")

	if a1 != a2 {
		t.Error("expected same breaker for the same host")
	}
	if a1 == b {
		t.Error("expected different breakers for different hosts")
	}
	if b.Name() != "localhost" {
		t.Errorf("breaker name = %q, want localhost", b.Name())
	}
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	cb := quietRegistry().Get("test")
	for range 10 {
		s := &scriptedCall{results: []any{&HTTPStatusError{StatusCode: 404}}}
		_, _ = callWithRetry(context.Background(), cb, fastRetry, s.call)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed circuit after client errors, got %v", cb.State())
	}
}
