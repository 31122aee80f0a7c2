package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/aristath/asyncweather/internal/events"
	"github.com/aristath/asyncweather/internal/scheduler"
)

var (
	// ErrForbidden matches every failure signal raised by a delayed operation.
	ErrForbidden = errors.New("forbidden duration")

	// ErrInvalidDuration is the outcome cause for negative, NaN or infinite
	// durations, and for durations too long to schedule at the configured unit.
	ErrInvalidDuration = errors.New("duration must be a non-negative number")
)

// maxDelay is the longest delay a time.Duration can hold, as a float.
const maxDelay = float64(math.MaxInt64)

// ForbiddenError is the failure signal of an operation whose duration equals
// the configured forbidden value.
type ForbiddenError struct {
	Index    int
	Duration float64
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%g is forbidden", e.Duration)
}

// Is makes errors.Is(err, ErrForbidden) match.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// Config configures a task group.
type Config struct {
	Forbidden  float64         // Duration value that raises the failure signal; always in effect
	Unit       time.Duration   // Length of one duration unit (default 1s)
	GraceDelay float64         // Units to pause after the outcome is decided (non-positive means 5)
	Clock      scheduler.Clock // Loop clock (default RealClock)
	Bus        *events.EventBus
	Logger     *log.Logger
}

// DefaultGraceDelay matches the fixed pause the group applies before returning.
const DefaultGraceDelay = 5

// OperationReport is the final state of one delayed operation.
type OperationReport struct {
	Index    int
	Duration float64
	Status   scheduler.TaskStatus
}

// Outcome is the single result of a group run.
// Results is set only when every operation completed; Cause only on failure.
type Outcome struct {
	Results    []float64
	Cause      error
	Operations []OperationReport
	Elapsed    time.Duration
}

// Failed reports whether the run ended with a failure cause.
func (o Outcome) Failed() bool {
	return o.Cause != nil
}

// Count returns how many operations ended in status.
func (o Outcome) Count(status scheduler.TaskStatus) int {
	n := 0
	for _, op := range o.Operations {
		if op.Status == status {
			n++
		}
	}
	return n
}

// Group runs delayed operations concurrently with fail-fast cancellation.
type Group struct {
	cfg Config
}

// NewGroup creates a group, filling in defaults for zero config fields.
func NewGroup(cfg Config) *Group {
	if cfg.Unit <= 0 {
		cfg.Unit = time.Second
	}
	if cfg.GraceDelay <= 0 || math.IsNaN(cfg.GraceDelay) {
		cfg.GraceDelay = DefaultGraceDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = scheduler.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Group{cfg: cfg}
}

// Config returns the effective configuration.
func (g *Group) Config() Config {
	return g.cfg
}

// Run executes one operation per duration on a loop owned by this call.
// If an operation raises the failure signal, every unfinished sibling is
// cancelled and the outcome carries that first cause. The grace delay always
// elapses once before Run returns. Run never panics on bad input; it reports
// it through Outcome.Cause.
func (g *Group) Run(ctx context.Context, durations []float64) Outcome {
	for i, d := range durations {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return Outcome{Cause: fmt.Errorf("operation %d (%g): %w", i, d, ErrInvalidDuration)}
		}
		if d*float64(g.cfg.Unit) >= maxDelay {
			return Outcome{Cause: fmt.Errorf("operation %d (%g units of %v): too long: %w", i, d, g.cfg.Unit, ErrInvalidDuration)}
		}
	}

	loop := scheduler.NewLoop(g.cfg.Clock)
	start := loop.Now()

	ops := make([]*scheduler.Task[float64], len(durations))
	for i, d := range durations {
		ops[i] = scheduler.Spawn(loop, events.OperationSource(i), g.operation(loop, i, d))
		ops[i].OnCancelled(func() {
			g.cfg.Logger.Printf("task %g cancelled", d)
			g.publish(events.TopicOperation, events.OperationCancelledEvent{
				Index: i, Duration: d, Timestamp: loop.Now(),
			})
		})
	}

	coordinator := scheduler.Spawn(loop, "group", func(t *scheduler.Task[Outcome]) {
		g.cfg.Logger.Printf("awaiting %d operations", len(ops))
		all := scheduler.Gather[float64](loop, ops...)

		all.OnDone(func() {
			var out Outcome
			results, err := all.Result()
			if err != nil {
				g.cfg.Logger.Printf("Fatal error: %v", err)
				g.cancelAll(loop, ops, durations)
				out.Cause = err
			} else {
				out.Results = results
			}

			t.Sleep(g.grace(), func() {
				t.Return(out)
			})
		})
	})

	var out Outcome
	if err := loop.RunUntil(ctx, coordinator); err != nil {
		g.cfg.Logger.Printf("WARNING: group run interrupted: %v", err)
		out = Outcome{Cause: err}
	} else {
		out, _ = coordinator.Result()
	}

	out.Operations = report(ops, durations)
	out.Elapsed = loop.Now().Sub(start)

	g.publish(events.TopicGroup, events.GroupOutcomeEvent{
		Failed:    out.Failed(),
		Cause:     out.Cause,
		Completed: out.Count(scheduler.TaskCompleted),
		Cancelled: out.Count(scheduler.TaskCancelled),
		Elapsed:   out.Elapsed,
		Timestamp: loop.Now(),
	})

	return out
}

// operation builds the coroutine for the delayed operation at index i.
func (g *Group) operation(loop *scheduler.Loop, i int, d float64) scheduler.Coroutine[float64] {
	return func(t *scheduler.Task[float64]) {
		g.cfg.Logger.Printf("task %g", d)
		g.publish(events.TopicOperation, events.OperationStartedEvent{
			Index: i, Duration: d, Timestamp: loop.Now(),
		})

		t.Sleep(g.units(d), func() {
			g.cfg.Logger.Printf("task %g finished sleeping", d)

			if d == g.cfg.Forbidden {
				err := &ForbiddenError{Index: i, Duration: d}
				g.publish(events.TopicOperation, events.OperationFailedEvent{
					Index: i, Duration: d, Err: err, Timestamp: loop.Now(),
				})
				t.Fail(err)
				return
			}

			g.cfg.Logger.Printf("slept for %g units", d)
			g.publish(events.TopicOperation, events.OperationCompletedEvent{
				Index: i, Duration: d, Timestamp: loop.Now(),
			})
			t.Return(d)
		})
	}
}

// cancelAll requests cancellation of every operation once.
// Finished operations ignore the request and produce no event.
func (g *Group) cancelAll(loop *scheduler.Loop, ops []*scheduler.Task[float64], durations []float64) {
	for i, op := range ops {
		if !op.Cancel() {
			continue
		}
		g.cfg.Logger.Printf("cancelling task %g", durations[i])
		g.publish(events.TopicOperation, events.OperationCancelRequestedEvent{
			Index: i, Duration: durations[i], Timestamp: loop.Now(),
		})
	}
}

// units converts d to a delay, saturating at the longest representable one.
func (g *Group) units(d float64) time.Duration {
	scaled := d * float64(g.cfg.Unit)
	if scaled >= maxDelay {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}

func (g *Group) grace() time.Duration {
	return g.units(g.cfg.GraceDelay)
}

func (g *Group) publish(topic string, event events.Event) {
	if g.cfg.Bus != nil {
		g.cfg.Bus.Publish(topic, event)
	}
}

func report(ops []*scheduler.Task[float64], durations []float64) []OperationReport {
	out := make([]OperationReport, len(ops))
	for i, op := range ops {
		out[i] = OperationReport{Index: i, Duration: durations[i], Status: op.Status()}
	}
	return out
}
