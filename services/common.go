package services

import (
	"context"
	"time"

	"travlr/events"
	"travlr/models"
)

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func bookingPayload(b models.Booking, changedBy string) events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID:  b.ID.Hex(),
		TripCode:   b.TripCode,
		TripName:   b.TripName,
		UserEmail:  b.UserEmail,
		UserName:   b.UserName,
		Travelers:  b.Travelers,
		TotalPrice: b.TotalPrice,
		TravelDate: b.TravelDate,
		Status:     b.Status,
		ChangedBy:  changedBy,
	}
}
