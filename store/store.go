package store

import (
	"context"
	"errors"

	"travlr/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id")
)

// TripQuery selects one page of the catalog. A non-empty Search takes
// precedence over Category and orders results by relevance.
type TripQuery struct {
	Search   string
	Category string
	Skip     int
	Limit    int
}

// BookingFilter narrows a booking listing. Zero value lists everything.
type BookingFilter struct {
	UserEmail string
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteAllUsers(ctx context.Context) error
}

type TripStore interface {
	ListTrips(ctx context.Context, q TripQuery) ([]models.Trip, int64, error)
	GetTrip(ctx context.Context, code string) (*models.Trip, error)
	CreateTrip(ctx context.Context, trip *models.Trip) error
	UpdateTrip(ctx context.Context, code string, trip *models.Trip) (*models.Trip, error)
	DeleteTrip(ctx context.Context, code string) error
	ReplaceTrips(ctx context.Context, trips []models.Trip) error
}

type CartStore interface {
	// GetOrCreateCart returns the owner's cart, creating an empty one atomically.
	GetOrCreateCart(ctx context.Context, userEmail string) (*models.Cart, error)
	FindCart(ctx context.Context, userEmail string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

type BookingStore interface {
	// ListBookings returns bookings newest bookingDate first.
	ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the API.
type Store interface {
	UserStore
	TripStore
	CartStore
	BookingStore
	Ping(ctx context.Context) error
}
