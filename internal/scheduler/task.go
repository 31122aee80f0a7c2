package scheduler

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending   TaskStatus = iota // Spawned, not yet started by the loop
	TaskRunning                     // Started; running or suspended in Sleep
	TaskCompleted                   // Returned a value
	TaskFailed                      // Finished with an error
	TaskCancelled                   // Interrupted by Cancel
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// Terminal reports whether s is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Coroutine is the body of a task. It runs on the loop and must end by
// calling Return or Fail, either directly or from a Sleep continuation.
type Coroutine[T any] func(t *Task[T])

// Task is a coroutine scheduled on a Loop, with its result held in an embedded Future.
type Task[T any] struct {
	*Future[T]

	id              int
	name            string
	status          TaskStatus
	body            Coroutine[T]
	timer           *Timer
	cancelRequested bool
	onCancelled     []func()
}

// Spawn creates a task and schedules its first step on the loop.
// Tasks spawned in sequence start in that same sequence.
func Spawn[T any](loop *Loop, name string, body Coroutine[T]) *Task[T] {
	t := &Task[T]{
		Future: NewFuture[T](loop),
		id:     loop.newTaskID(),
		name:   name,
		status: TaskPending,
		body:   body,
	}
	loop.CallSoon(t.start)
	return t
}

// ID returns the loop-unique task identifier.
func (t *Task[T]) ID() int {
	return t.id
}

// Name returns the task's human-readable name.
func (t *Task[T]) Name() string {
	return t.name
}

// Status returns the current lifecycle state.
func (t *Task[T]) Status() TaskStatus {
	return t.status
}

// Sleep suspends the task for d on the loop clock, then runs next.
// It is the task's only suspension point and the place where a pending
// cancellation is delivered.
func (t *Task[T]) Sleep(d time.Duration, next func()) {
	if t.status.Terminal() {
		return
	}
	if t.cancelRequested {
		t.loop.CallSoon(t.finishCancelled)
		return
	}
	t.timer = t.loop.CallLater(d, func() {
		t.timer = nil
		if t.cancelRequested {
			t.finishCancelled()
			return
		}
		next()
	})
}

// Return completes the task with v.
func (t *Task[T]) Return(v T) {
	if t.status.Terminal() {
		return
	}
	t.status = TaskCompleted
	t.Future.Resolve(v)
}

// Fail finishes the task with err.
func (t *Task[T]) Fail(err error) {
	if t.status.Terminal() {
		return
	}
	t.status = TaskFailed
	t.Future.Reject(err)
}

// Cancel requests cooperative cancellation.
// The task moves to TaskCancelled on a later loop iteration, at its
// suspension point. Returns true only for the first request on an unfinished
// task; later requests and requests on finished tasks do nothing.
func (t *Task[T]) Cancel() bool {
	if t.status.Terminal() || t.cancelRequested {
		return false
	}
	t.cancelRequested = true

	// Suspended: interrupt the sleep. A timer that already fired but whose
	// continuation has not run yet delivers it there. Pending: start() delivers it.
	if t.timer != nil && t.timer.Cancel() {
		t.timer = nil
		t.loop.CallSoon(t.finishCancelled)
	}
	return true
}

// CancelRequested reports whether Cancel took effect on this task.
func (t *Task[T]) CancelRequested() bool {
	return t.cancelRequested
}

// OnCancelled registers fn to run on the loop when the task reaches TaskCancelled.
func (t *Task[T]) OnCancelled(fn func()) {
	t.onCancelled = append(t.onCancelled, fn)
}

func (t *Task[T]) start() {
	if t.status != TaskPending {
		return
	}
	if t.cancelRequested {
		t.finishCancelled()
		return
	}
	t.status = TaskRunning
	t.body(t)
}

func (t *Task[T]) finishCancelled() {
	if t.status.Terminal() {
		return
	}
	t.status = TaskCancelled
	t.Future.Cancel()
	for _, fn := range t.onCancelled {
		fn()
	}
	t.onCancelled = nil
}
