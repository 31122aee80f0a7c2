package events

import (
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is used when a subscriber asks for a non-positive buffer.
const DefaultBufferSize = 256

// EventBus is a channel-based pub-sub event bus.
// Subscribers pick one topic or all of them; publishing never blocks.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[string][]chan Event // topic -> subscriber channels
	allSubs []chan Event
	closed  bool
	dropped atomic.Int64
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[string][]chan Event),
	}
}

// Subscribe returns a channel receiving events published to topic.
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	ch := newSubscription(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}

	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// SubscribeAll returns a channel receiving events from every topic.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	ch := newSubscription(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}

	b.allSubs = append(b.allSubs, ch)
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe or SubscribeAll.
// Unknown channels are ignored.
func (b *EventBus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for topic, channels := range b.subs {
		for i, ch := range channels {
			if ch == sub {
				b.subs[topic] = append(channels[:i], channels[i+1:]...)
				close(ch)
				return
			}
		}
	}
	for i, ch := range b.allSubs {
		if ch == sub {
			b.allSubs = append(b.allSubs[:i], b.allSubs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends event to the topic's subscribers and to every SubscribeAll channel.
// A full subscriber misses the event rather than stalling the publisher.
func (b *EventBus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	missed := 0
	for _, ch := range b.subs[topic] {
		if !trySend(ch, event) {
			missed++
		}
	}
	for _, ch := range b.allSubs {
		if !trySend(ch, event) {
			missed++
		}
	}

	if missed > 0 {
		b.dropped.Add(int64(missed))
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes the event bus and all subscriber channels.
// Safe to call multiple times.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
}

func newSubscription(bufSize int) chan Event {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return make(chan Event, bufSize)
}

func trySend(ch chan Event, event Event) bool {
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}
