package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"travlr/events"
	"travlr/export"
	"travlr/logging"
	"travlr/metrics"
	"travlr/models"
	"travlr/store"

	"github.com/rs/zerolog"
)

// CreateBookingInput is a booking requested outside of checkout.
// Missing TripName and TotalPrice are filled from the catalog.
type CreateBookingInput struct {
	TripCode        string
	TripName        string
	UserEmail       string
	UserName        string
	Travelers       int
	TotalPrice      *float64
	TravelDate      time.Time
	Status          string
	SpecialRequests string
	ContactPhone    string
}

// BookingService implements the booking lifecycle with ownership checks
type BookingService struct {
	bookings store.BookingStore
	trips    store.TripStore
	bus      *events.EventBus
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewBookingService(bookings store.BookingStore, trips store.TripStore, bus *events.EventBus, timeout time.Duration, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		trips:    trips,
		bus:      bus,
		timeout:  timeout,
		logger:   logging.Component(logger, "booking_service"),
	}
}

// List returns every booking for admins and the caller's own otherwise
func (s *BookingService) List(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := store.BookingFilter{}
	if !p.IsAdmin() {
		filter.UserEmail = models.NormalizeEmail(p.Email)
	}
	return s.bookings.ListBookings(ctx, filter)
}

func (s *BookingService) ListByUser(ctx context.Context, p models.Principal, email string) ([]models.Booking, error) {
	email = models.NormalizeEmail(email)
	if !p.CanAccess(email) {
		return nil, fmt.Errorf("bookings of %s: %w", email, ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.bookings.ListBookings(ctx, store.BookingFilter{UserEmail: email})
}

// Get loads a booking and checks the caller may access it
func (s *BookingService) Get(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.fetchOwned(ctx, p, id)
}

func (s *BookingService) fetchOwned(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(booking.UserEmail) {
		return nil, fmt.Errorf("booking %s: %w", id, ErrForbidden)
	}
	return booking, nil
}

func (s *BookingService) Create(ctx context.Context, p models.Principal, in CreateBookingInput) (*models.Booking, error) {
	owner := models.NormalizeEmail(in.UserEmail)
	if !p.CanAccess(owner) {
		return nil, fmt.Errorf("booking for %s: %w", owner, ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if in.TripName == "" || in.TotalPrice == nil {
		trip, err := s.trips.GetTrip(ctx, in.TripCode)
		switch {
		case err == nil:
			if in.TripName == "" {
				in.TripName = trip.Name
			}
			if in.TotalPrice == nil {
				total := trip.PerPerson * float64(in.Travelers)
				in.TotalPrice = &total
			}
		case errors.Is(err, store.ErrNotFound):
			if in.TripName == "" {
				return nil, fmt.Errorf("trip %s: %w", in.TripCode, ErrNotFound)
			}
		default:
			return nil, err
		}
	}

	if in.UserName == "" && strings.EqualFold(p.Email, owner) {
		in.UserName = p.Name
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		TripCode:        in.TripCode,
		TripName:        in.TripName,
		UserEmail:       owner,
		UserName:        in.UserName,
		Travelers:       in.Travelers,
		BookingDate:     now,
		TravelDate:      in.TravelDate,
		Status:          in.Status,
		SpecialRequests: in.SpecialRequests,
		ContactPhone:    in.ContactPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.TotalPrice != nil {
		booking.TotalPrice = *in.TotalPrice
	}

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	metrics.AddBookings(1)
	s.publish(events.EventBookingCreated, bookingPayload(*booking, p.Email))
	return booking, nil
}

// Update applies the supplied fields after an ownership check
func (s *BookingService) Update(ctx context.Context, p models.Principal, id string, update models.BookingUpdate) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	current, err := s.fetchOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.bookings.UpdateBooking(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.publish(events.EventBookingUpdated, bookingPayload(*updated, p.Email))
	if updated.Status != current.Status {
		s.publish(events.EventBookingStatusChanged, bookingPayload(*updated, p.Email))
	}
	return updated, nil
}

// UpdateStatus overwrites the status. Any known status may follow any other.
func (s *BookingService) UpdateStatus(ctx context.Context, p models.Principal, id, status string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.fetchOwned(ctx, p, id); err != nil {
		return nil, err
	}
	updated, err := s.bookings.UpdateBooking(ctx, id, models.BookingUpdate{Status: &status})
	if err != nil {
		return nil, err
	}

	s.publish(events.EventBookingStatusChanged, bookingPayload(*updated, p.Email))
	return updated, nil
}

func (s *BookingService) Delete(ctx context.Context, p models.Principal, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.fetchOwned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.publish(events.EventBookingDeleted, bookingPayload(*booking, p.Email))
	return nil
}

// Export writes all bookings as an XLSX workbook. Admin only.
func (s *BookingService) Export(ctx context.Context, p models.Principal, w io.Writer) error {
	if !p.IsAdmin() {
		return fmt.Errorf("export: %w", ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bookings, err := s.bookings.ListBookings(ctx, store.BookingFilter{})
	if err != nil {
		return err
	}
	return export.WriteBookings(w, bookings)
}

func (s *BookingService) publish(eventType string, payload interface{}) {
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}
