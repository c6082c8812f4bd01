package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventSnapshotUpdated  EventType = "snapshot_updated"
	EventModalChanged     EventType = "modal_changed"
	EventSelectionChanged EventType = "selection_changed"
	EventDiagramReplaced  EventType = "diagram_replaced"
)

// Event represents an event that occurred in the system. Seq increases by
// one with every event the editor publishes.
type Event struct {
	Type    EventType `json:"type"`
	Op      string    `json:"op,omitempty"`
	Seq     uint64    `json:"seq"`
	Payload any       `json:"payload,omitempty"`
}

// Sequence reports the event's position in the editor's event stream
func (ev Event) Sequence() uint64 {
	return ev.Seq
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
