package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newVirtualLoop creates a loop on a virtual clock starting at epoch.
func newVirtualLoop(t *testing.T) (*Loop, *VirtualClock) {
	t.Helper()
	clock := NewVirtualClock(epoch)
	return NewLoop(clock), clock
}

func TestLoop_CallSoonRunsInOrder(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	done := NewFuture[struct{}](loop)

	var order []int
	for i := range 5 {
		loop.CallSoon(func() { order = append(order, i) })
	}
	loop.CallSoon(func() { done.Resolve(struct{}{}) })

	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestLoop_CallSoonDuringIterationRunsNextIteration(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	done := NewFuture[struct{}](loop)

	var order []string
	loop.CallSoon(func() {
		order = append(order, "a")
		loop.CallSoon(func() {
			order = append(order, "c")
			done.Resolve(struct{}{})
		})
	})
	loop.CallSoon(func() { order = append(order, "b") })

	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestLoop_TimersFireByDeadlineThenRegistration(t *testing.T) {
	loop, clock := newVirtualLoop(t)
	done := NewFuture[struct{}](loop)

	var fired []string
	loop.CallLater(3*time.Second, func() { fired = append(fired, "3s-first") })
	loop.CallLater(1*time.Second, func() { fired = append(fired, "1s") })
	loop.CallLater(3*time.Second, func() { fired = append(fired, "3s-second") })
	loop.CallLater(5*time.Second, func() { done.Resolve(struct{}{}) })

	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}

	want := []string{"1s", "3s-first", "3s-second"}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
	if got := clock.Elapsed(epoch); got != 5*time.Second {
		t.Errorf("virtual elapsed = %v, want 5s", got)
	}
}

func TestLoop_CancelledTimerDoesNotFire(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	done := NewFuture[struct{}](loop)

	fired := false
	timer := loop.CallLater(time.Second, func() { fired = true })
	loop.CallLater(2*time.Second, func() { done.Resolve(struct{}{}) })

	if !timer.Cancel() {
		t.Fatal("first Cancel should return true")
	}
	if timer.Cancel() {
		t.Error("second Cancel should return false")
	}

	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if fired {
		t.Error("cancelled timer fired")
	}
}

func TestLoop_StalledWhenNothingLeft(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	never := NewFuture[int](loop)

	loop.CallSoon(func() {})

	err := loop.RunUntil(context.Background(), never)
	if !errors.Is(err, ErrLoopStalled) {
		t.Fatalf("expected ErrLoopStalled, got %v", err)
	}
}

func TestLoop_ContextCancelledStopsRealClockWait(t *testing.T) {
	loop := NewLoop(RealClock{})
	never := NewFuture[int](loop)
	loop.CallLater(time.Hour, func() { never.Resolve(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := loop.RunUntil(ctx, never)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("RunUntil did not return promptly after context deadline")
	}
}

func TestLoop_RealClockWaitsForTimer(t *testing.T) {
	loop := NewLoop(nil)
	done := NewFuture[struct{}](loop)
	loop.CallLater(10*time.Millisecond, func() { done.Resolve(struct{}{}) })

	start := time.Now()
	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("returned after %v, expected at least 10ms", elapsed)
	}
}

func TestLoop_Pending(t *testing.T) {
	loop, _ := newVirtualLoop(t)

	loop.CallSoon(func() {})
	t1 := loop.CallLater(time.Second, func() {})
	loop.CallLater(time.Second, func() {})
	t1.Cancel()

	ready, timers := loop.Pending()
	if ready != 1 || timers != 1 {
		t.Errorf("Pending() = (%d, %d), want (1, 1)", ready, timers)
	}
}
