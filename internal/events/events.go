package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAuthStateChanged        = "auth_state_changed"
	EventBookingRequestConfirmed = "booking_request_confirmed"
	EventInquiryReceived         = "inquiry_received"
)

// AuthStatePayload is published by the identity provider whenever a client
// signs in or out.
type AuthStatePayload struct {
	ClientID    string `json:"client_id"`
	SignedIn    bool   `json:"signed_in"`
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// BookingRequestPayload is the confirmed wizard draft. It never carries payment data.
type BookingRequestPayload struct {
	SessionID  string    `json:"session_id"`
	Username   string    `json:"username,omitempty"`
	Departure  string    `json:"departure"`
	Arrival    string    `json:"arrival"`
	Date       string    `json:"date"`
	Passengers int       `json:"passengers"`
	AircraftID string    `json:"aircraft_id"`
	At         time.Time `json:"at"`
}

type InquiryPayload struct {
	InquiryID   string `json:"inquiry_id"`
	InquiryType string `json:"inquiry_type"`
	SessionID   string `json:"session_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]subscription
	nextID      uint64
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]subscription)}
}

// Subscribe registers a handler for a given event type and returns the
// function that removes it. Calling it more than once is harmless.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *EventBus) remove(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// Subscribers returns how many handlers listen to eventType.
func (b *EventBus) Subscribers(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, s := range subs {
		// Handlers run synchronously; caller decides concurrency model.
		_ = s.handler(event)
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
