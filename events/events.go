package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventUserRegistered       = "user_registered"
	EventBookingCreated       = "booking_created"
	EventBookingUpdated       = "booking_updated"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingDeleted       = "booking_deleted"
	EventCheckoutCompleted    = "checkout_completed"
)

// UserEventPayload identifies a newly registered account.
type UserEventPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID  string    `json:"booking_id"`
	TripCode   string    `json:"trip_code"`
	TripName   string    `json:"trip_name"`
	UserEmail  string    `json:"user_email"`
	UserName   string    `json:"user_name"`
	Travelers  int       `json:"travelers"`
	TotalPrice float64   `json:"total_price"`
	TravelDate time.Time `json:"travel_date"`
	Status     string    `json:"status"`
	ChangedBy  string    `json:"changed_by,omitempty"`
}

// CheckoutEventPayload lists every booking created by one checkout.
type CheckoutEventPayload struct {
	UserEmail string                `json:"user_email"`
	UserName  string                `json:"user_name"`
	Bookings  []BookingEventPayload `json:"bookings"`
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

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// WithLogger sets the logger that receives handler failures.
func (b *EventBus) WithLogger(logger *zerolog.Logger) *EventBus {
	b.logger = logger
	return b
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handler errors are logged
// and never reach the publisher.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for i, handler := range handlers {
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Error().Err(err).
				Str("event", event.Type).
				Int("handler", i).
				Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
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
