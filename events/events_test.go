package events

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	callCount := 0
	bus.Subscribe(EventUserRegistered, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventUserRegistered, UserEventPayload{Email: "ann@travlr.com", Name: "Ann"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventUserRegistered, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded UserEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, "ann@travlr.com", decoded.Email)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus().WithLogger(&logger)
	var count1, count2 int

	bus.Subscribe(EventBookingCreated, func(_ *Event) error { count1++; return errors.New("mailbox full") })
	bus.Subscribe(EventBookingCreated, func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: EventBookingCreated})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
	assert.Contains(t, buf.String(), `"event":"booking_created"`)
	assert.Contains(t, buf.String(), `"error":"mailbox full"`)
	assert.Contains(t, buf.String(), "event handler failed")
}

func TestSubscribeAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus().WithLogger(&logger)
	SubscribeAudit(bus, &logger)

	for _, eventType := range []string{EventBookingCreated, EventBookingUpdated, EventBookingDeleted} {
		buf.Reset()
		require.NoError(t, bus.PublishJSON(eventType, BookingEventPayload{
			BookingID:  "64b7f0c2a1b2c3d4e5f60718",
			TripCode:   "BCH01",
			UserEmail:  "ann@travlr.com",
			Status:     "pending",
			TravelDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		}))
		out := buf.String()
		assert.Contains(t, out, "booking audit", eventType)
		assert.Contains(t, out, `"event":"`+eventType+`"`)
		assert.Contains(t, out, `"booking_id":"64b7f0c2a1b2c3d4e5f60718"`)
		assert.NotContains(t, out, "event handler failed")
	}

	buf.Reset()
	bus.Publish(&Event{Type: EventBookingDeleted, Payload: []byte("not json")})
	assert.Contains(t, buf.String(), "event handler failed")
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() {
		bus.Publish(&Event{Type: EventBookingDeleted})
	})

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON(EventBookingDeleted, nil))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON(EventBookingUpdated, make(chan int))
	assert.Error(t, err)
}
