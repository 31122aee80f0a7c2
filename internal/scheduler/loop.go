package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"time"
)

// ErrLoopStalled is returned by RunUntil when the target is still pending but
// the loop has no ready callbacks and no timers left to fire.
var ErrLoopStalled = errors.New("scheduler: loop stalled before target completed")

// Awaitable is anything a Loop can run until completion.
type Awaitable interface {
	Done() bool
}

// Loop is a single-threaded cooperative event loop.
// Every callback runs on the goroutine that called RunUntil, one at a time,
// so state touched only from callbacks needs no locking.
type Loop struct {
	clock  Clock
	ready  []func()
	timers timerHeap
	seq    uint64
	nextID int
}

// NewLoop creates a loop driven by clock. A nil clock means RealClock.
func NewLoop(clock Clock) *Loop {
	if clock == nil {
		clock = RealClock{}
	}
	return &Loop{clock: clock}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// CallSoon schedules fn to run on the next loop iteration.
func (l *Loop) CallSoon(fn func()) {
	l.ready = append(l.ready, fn)
}

// CallLater schedules fn to run once d has elapsed on the loop clock.
// Timers with equal deadlines fire in registration order.
func (l *Loop) CallLater(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{
		deadline: l.clock.Now().Add(d),
		seq:      l.seq,
		fn:       fn,
	}
	heap.Push(&l.timers, t)
	return t
}

// RunUntil drives the loop until target reports Done.
// Returns ctx.Err() if the context ends first, or ErrLoopStalled if no
// further progress is possible.
func (l *Loop) RunUntil(ctx context.Context, target Awaitable) error {
	for !target.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.collectDueTimers()

		if len(l.ready) == 0 {
			next, ok := l.nextDeadline()
			if !ok {
				return ErrLoopStalled
			}
			if err := l.clock.Wait(ctx, next); err != nil {
				return err
			}
			continue
		}

		// Run only what was ready at the start of this iteration; callbacks
		// scheduled meanwhile wait for the next one.
		batch := l.ready
		l.ready = nil
		for _, fn := range batch {
			fn()
		}
	}
	return nil
}

// Pending reports how many callbacks and live timers are queued.
func (l *Loop) Pending() (ready int, timers int) {
	live := 0
	for _, t := range l.timers {
		if !t.cancelled {
			live++
		}
	}
	return len(l.ready), live
}

func (l *Loop) newTaskID() int {
	l.nextID++
	return l.nextID
}

// collectDueTimers moves every timer whose deadline has passed into the ready queue.
func (l *Loop) collectDueTimers() {
	now := l.clock.Now()
	for l.timers.Len() > 0 {
		t := l.timers[0]
		if t.cancelled {
			heap.Pop(&l.timers)
			continue
		}
		if t.deadline.After(now) {
			return
		}
		heap.Pop(&l.timers)
		t.fired = true
		l.ready = append(l.ready, t.fn)
	}
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	for l.timers.Len() > 0 {
		t := l.timers[0]
		if t.cancelled {
			heap.Pop(&l.timers)
			continue
		}
		return t.deadline, true
	}
	return time.Time{}, false
}

// Timer is a handle to a callback registered with CallLater.
type Timer struct {
	deadline  time.Time
	seq       uint64
	fn        func()
	index     int
	fired     bool
	cancelled bool
}

// Cancel prevents the timer from firing.
// Returns false if the timer already fired or was already cancelled.
func (t *Timer) Cancel() bool {
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	t.fn = nil
	return true
}

// Deadline returns when the timer is due.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// timerHeap orders timers by deadline, then by registration sequence.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
