package agent

import (
	"sync"
	"time"
)

// StatusKind tags one observable loop event.
type StatusKind string

const (
	StatusAwaitingModel  StatusKind = "awaiting_model"
	StatusExecutingTools StatusKind = "executing_tools"
	StatusToolCall       StatusKind = "tool_call"
	StatusToolResult     StatusKind = "tool_result"
	StatusResponding     StatusKind = "responding"
	StatusComplete       StatusKind = "complete"
	StatusError          StatusKind = "error"
)

// StatusEvent is one progress record emitted by the loop.
type StatusEvent struct {
	Kind      StatusKind     `json:"kind"`
	Message   string         `json:"message"`
	ToolName  string         `json:"tool_name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

const subscriberBuffer = 64

// StatusBroadcaster fans status events out to any number of subscribers.
// Publishing never blocks: a subscriber whose buffer is full loses the
// event rather than stalling the loop.
type StatusBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan StatusEvent
	nextID      int
}

func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{subscribers: map[int]chan StatusEvent{}}
}

// Subscribe registers a new consumer. The returned cancel function removes
// the subscription and closes its channel.
func (b *StatusBroadcaster) Subscribe() (<-chan StatusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan StatusEvent, subscriberBuffer)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber that can take it.
func (b *StatusBroadcaster) Publish(event StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}
