package events

import (
	"travlr/logging"
	"travlr/metrics"

	"github.com/rs/zerolog"
)

var auditedEvents = []string{
	EventBookingCreated,
	EventBookingUpdated,
	EventBookingStatusChanged,
	EventBookingDeleted,
}

// SubscribeAudit records every booking lifecycle event in the log and in the
// booking_events_total counter.
func SubscribeAudit(bus *EventBus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "booking_audit")
	handler := func(event *Event) error {
		var p BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		metrics.IncBookingEvent(event.Type)
		audit.Info().
			Str("event", event.Type).
			Str("booking_id", p.BookingID).
			Str("trip_code", p.TripCode).
			Str("user_email", p.UserEmail).
			Str("status", p.Status).
			Str("changed_by", p.ChangedBy).
			Time("at", event.CreatedAt).
			Msg("booking audit")
		return nil
	}

	for _, eventType := range auditedEvents {
		bus.Subscribe(eventType, handler)
	}
}
