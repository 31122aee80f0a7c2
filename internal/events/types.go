package events

import (
	"fmt"
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Source() string
}

// Topic constants
const (
	TopicOperation = "operation"
	TopicGroup     = "group"
	TopicWeather   = "weather"
)

// Event type constants
const (
	EventTypeOperationStarted         = "operation.started"
	EventTypeOperationCompleted       = "operation.completed"
	EventTypeOperationFailed          = "operation.failed"
	EventTypeOperationCancelRequested = "operation.cancel_requested"
	EventTypeOperationCancelled       = "operation.cancelled"
	EventTypeGroupOutcome             = "group.outcome"
	EventTypeWeatherReport            = "weather.report"
)

// OperationSource names a delayed operation by its submission index.
func OperationSource(index int) string {
	return fmt.Sprintf("op-%d", index)
}

// OperationStartedEvent is published when a delayed operation begins.
type OperationStartedEvent struct {
	Index     int
	Duration  float64
	Timestamp time.Time
}

func (e OperationStartedEvent) EventType() string { return EventTypeOperationStarted }
func (e OperationStartedEvent) Source() string    { return OperationSource(e.Index) }

// OperationCompletedEvent is published when an operation finishes normally.
type OperationCompletedEvent struct {
	Index     int
	Duration  float64
	Timestamp time.Time
}

func (e OperationCompletedEvent) EventType() string { return EventTypeOperationCompleted }
func (e OperationCompletedEvent) Source() string    { return OperationSource(e.Index) }

// OperationFailedEvent is published when an operation raises the failure signal.
type OperationFailedEvent struct {
	Index     int
	Duration  float64
	Err       error
	Timestamp time.Time
}

func (e OperationFailedEvent) EventType() string { return EventTypeOperationFailed }
func (e OperationFailedEvent) Source() string    { return OperationSource(e.Index) }

// OperationCancelRequestedEvent is published once per operation the group
// actually cancelled. Requests that were no-ops produce no event.
type OperationCancelRequestedEvent struct {
	Index     int
	Duration  float64
	Timestamp time.Time
}

func (e OperationCancelRequestedEvent) EventType() string {
	return EventTypeOperationCancelRequested
}
func (e OperationCancelRequestedEvent) Source() string { return OperationSource(e.Index) }

// OperationCancelledEvent is published when a cancelled operation leaves its suspension point.
type OperationCancelledEvent struct {
	Index     int
	Duration  float64
	Timestamp time.Time
}

func (e OperationCancelledEvent) EventType() string { return EventTypeOperationCancelled }
func (e OperationCancelledEvent) Source() string    { return OperationSource(e.Index) }

// GroupOutcomeEvent is published once per group run, after the grace delay.
type GroupOutcomeEvent struct {
	Failed    bool
	Cause     error
	Completed int
	Cancelled int
	Elapsed   time.Duration
	Timestamp time.Time
}

func (e GroupOutcomeEvent) EventType() string { return EventTypeGroupOutcome }
func (e GroupOutcomeEvent) Source() string    { return "group" }

// WeatherReportEvent is published for each city the weather bot resolves.
type WeatherReportEvent struct {
	City        string
	Status      string
	Temperature float64
	Humidity    int
	Description string
	Timestamp   time.Time
}

func (e WeatherReportEvent) EventType() string { return EventTypeWeatherReport }
func (e WeatherReportEvent) Source() string    { return e.City }
