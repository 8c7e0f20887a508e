package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travlr/events"
	"travlr/logging"
	"travlr/metrics"
	"travlr/models"
	"travlr/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CartItemUpdate carries the editable fields of a cart item. Nil fields are kept.
type CartItemUpdate struct {
	Travelers  *int
	TravelDate *time.Time
}

// CheckoutRequest holds the contact details copied onto every booking.
type CheckoutRequest struct {
	UserName        string
	ContactPhone    string
	SpecialRequests string
}

// CheckoutResult is returned after every cart item became a booking.
type CheckoutResult struct {
	Message      string           `json:"message"`
	Bookings     []models.Booking `json:"bookings"`
	BookingCount int              `json:"bookingCount"`
}

// CartService owns cart mutations and checkout
type CartService struct {
	carts    store.CartStore
	bookings store.BookingStore
	bus      *events.EventBus
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewCartService(carts store.CartStore, bookings store.BookingStore, bus *events.EventBus, timeout time.Duration, logger *zerolog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		bookings: bookings,
		bus:      bus,
		timeout:  timeout,
		logger:   logging.Component(logger, "cart_service"),
	}
}

func (s *CartService) authorize(p models.Principal, owner string) (string, error) {
	owner = models.NormalizeEmail(owner)
	if !p.CanAccess(owner) {
		return "", fmt.Errorf("cart of %s: %w", owner, ErrForbidden)
	}
	return owner, nil
}

// Get returns the owner's cart, creating an empty one on first access
func (s *CartService) Get(ctx context.Context, p models.Principal, owner string) (*models.Cart, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.carts.GetOrCreateCart(ctx, owner)
}

// AddItem adds item or overwrites the item with the same trip code
func (s *CartService) AddItem(ctx context.Context, p models.Principal, owner string, item models.CartItem) (*models.Cart, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if item.TripImage == "" {
		item.TripImage = models.DefaultTripImage
	}

	cart, err := s.carts.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.UpsertItem(item)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem changes travelers or travel date of an item already in the cart
func (s *CartService) UpdateItem(ctx context.Context, p models.Principal, owner, tripCode string, update CartItemUpdate) (*models.Cart, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.FindCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	item := cart.FindItem(tripCode)
	if item == nil {
		return nil, fmt.Errorf("item %s not in cart: %w", tripCode, ErrNotFound)
	}
	if update.Travelers != nil {
		item.Travelers = *update.Travelers
		item.ComputeSubtotal()
	}
	if update.TravelDate != nil {
		item.TravelDate = *update.TravelDate
	}
	cart.CalculateTotals()

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the item for tripCode. Removing an absent item is not an error.
func (s *CartService) RemoveItem(ctx context.Context, p models.Principal, owner, tripCode string) (*models.Cart, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.FindCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(tripCode)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties an existing cart
func (s *CartService) Clear(ctx context.Context, p models.Principal, owner string) (*models.Cart, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.FindCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout converts every cart item into a pending booking. Inserts run
// concurrently; on any failure the written bookings stay and the cart is kept.
func (s *CartService) Checkout(ctx context.Context, p models.Principal, owner string, req CheckoutRequest) (*CheckoutResult, error) {
	owner, err := s.authorize(p, owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.FindCart(ctx, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	userName := req.UserName
	if userName == "" {
		userName = p.Name
	}

	now := time.Now().UTC()
	bookings := make([]models.Booking, len(cart.Items))
	for i, item := range cart.Items {
		bookings[i] = models.Booking{
			TripCode:        item.TripCode,
			TripName:        item.TripName,
			UserEmail:       owner,
			UserName:        userName,
			Travelers:       item.Travelers,
			TotalPrice:      item.Subtotal,
			BookingDate:     now,
			TravelDate:      item.TravelDate,
			Status:          models.StatusPending,
			SpecialRequests: req.SpecialRequests,
			ContactPhone:    req.ContactPhone,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	var g errgroup.Group
	for i := range bookings {
		b := &bookings[i]
		g.Go(func() error {
			return s.bookings.CreateBooking(ctx, b)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("user_email", owner).Int("items", len(bookings)).Msg("checkout partially failed")
		return nil, fmt.Errorf("checkout: %w", err)
	}
	metrics.AddBookings(len(bookings))

	cart.Clear()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("checkout: clear cart: %w", err)
	}

	payload := events.CheckoutEventPayload{UserEmail: owner, UserName: userName}
	for _, b := range bookings {
		bp := bookingPayload(b, p.Email)
		s.publish(events.EventBookingCreated, bp)
		payload.Bookings = append(payload.Bookings, bp)
	}
	s.publish(events.EventCheckoutCompleted, payload)

	return &CheckoutResult{
		Message:      "Checkout successful",
		Bookings:     bookings,
		BookingCount: len(bookings),
	}, nil
}

func (s *CartService) publish(eventType string, payload interface{}) {
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}
