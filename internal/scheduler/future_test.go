package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFuture_SettlesOnce(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	f := NewFuture[string](loop)

	if !f.Resolve("first") {
		t.Fatal("first Resolve should succeed")
	}
	if f.Resolve("second") {
		t.Error("second Resolve should fail")
	}
	if f.Reject(errors.New("late")) {
		t.Error("Reject after Resolve should fail")
	}
	if f.Cancel() {
		t.Error("Cancel after Resolve should fail")
	}

	v, err := f.Result()
	if v != "first" || err != nil {
		t.Errorf("Result() = (%q, %v), want (first, nil)", v, err)
	}
}

func TestFuture_OnDoneIsDeferred(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	f := NewFuture[int](loop)

	ran := false
	f.OnDone(func() { ran = true })
	f.Resolve(1)

	if ran {
		t.Fatal("OnDone callback ran synchronously")
	}

	done := NewFuture[struct{}](loop)
	loop.CallSoon(func() { done.Resolve(struct{}{}) })
	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if !ran {
		t.Error("OnDone callback never ran")
	}
}

func TestFuture_OnDoneAfterSettle(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	f := NewFuture[int](loop)
	f.Reject(errors.New("x"))

	ran := false
	f.OnDone(func() { ran = true })

	done := NewFuture[struct{}](loop)
	loop.CallSoon(func() { done.Resolve(struct{}{}) })
	if err := loop.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if !ran {
		t.Error("OnDone registered after settle never ran")
	}
}

func TestGather_ResultsInSubmissionOrder(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	var log []string

	tasks := []*Task[int]{
		Spawn(loop, "3", sleeper(3, nil, &log)),
		Spawn(loop, "1", sleeper(1, nil, &log)),
		Spawn(loop, "2", sleeper(2, nil, &log)),
	}
	all := Gather[int](loop, tasks...)

	if err := loop.RunUntil(context.Background(), all); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}

	got, err := all.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("results = %v, want %v", got, want)
		}
	}
}

func TestGather_FirstFailureWins(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	var log []string
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	tasks := []*Task[int]{
		Spawn(loop, "a", sleeper(4, errSecond, &log)),
		Spawn(loop, "b", sleeper(2, errFirst, &log)),
	}
	all := Gather[int](loop, tasks...)

	if err := loop.RunUntil(context.Background(), all); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}

	if _, err := all.Result(); !errors.Is(err, errFirst) {
		t.Errorf("expected first error, got %v", err)
	}

	// Let the later failure happen; it must not change the gathered result.
	end := NewFuture[struct{}](loop)
	loop.CallLater(10*time.Second, func() { end.Resolve(struct{}{}) })
	if err := loop.RunUntil(context.Background(), end); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if _, err := all.Result(); !errors.Is(err, errFirst) {
		t.Errorf("gathered error changed to %v", err)
	}
}

func TestGather_ChildCancelled(t *testing.T) {
	loop, _ := newVirtualLoop(t)
	var log []string

	task := Spawn(loop, "a", sleeper(5, nil, &log))
	all := Gather[int](loop, task)
	loop.CallLater(time.Second, func() { task.Cancel() })

	if err := loop.RunUntil(context.Background(), all); err != nil {
		t.Fatalf("RunUntil failed: %v", err)
	}
	if _, err := all.Result(); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestGather_Empty(t *testing.T) {
	loop, _ := newVirtualLoop(t)

	all := Gather[int, *Future[int]](loop)
	if !all.Done() {
		t.Fatal("gather of nothing should be done immediately")
	}
	got, err := all.Result()
	if err != nil || len(got) != 0 || got == nil {
		t.Errorf("Result() = (%v, %v), want ([], nil)", got, err)
	}
}
