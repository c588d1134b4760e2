package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSkipSelected       = "skip_selected"
	EventPlacementConfirmed = "placement_confirmed"
	EventDeliveryScheduled  = "delivery_scheduled"
	EventPaymentCompleted   = "payment_completed"
	EventPaymentRedirect    = "payment_redirect_issued"
	EventSessionCancelled   = "session_cancelled"
	EventSessionReset       = "session_reset"
)

// SessionEventPayload is the minimal booking-session snapshot for event
// consumers.
type SessionEventPayload struct {
	SessionID     string    `json:"session_id"`
	Step          string    `json:"step"`
	SkipID        int64     `json:"skip_id,omitempty"`
	SkipSize      int64     `json:"skip_size,omitempty"`
	PlacementType string    `json:"placement_type,omitempty"`
	DeliveryDate  time.Time `json:"delivery_date,omitempty"`
	Method        string    `json:"method,omitempty"`
	Total         float64   `json:"total,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
