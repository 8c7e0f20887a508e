package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"travlr/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local Store used by tests and the memory driver.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]models.User
	trips    map[string]models.Trip
	carts    map[string]models.Cart
	bookings map[primitive.ObjectID]models.Booking
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:    make(map[primitive.ObjectID]models.User),
		trips:    make(map[string]models.Trip),
		carts:    make(map[string]models.Cart),
		bookings: make(map[primitive.ObjectID]models.Booking),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[oid]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		u.Hash, u.Salt = "", ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[oid]; !ok {
		return ErrNotFound
	}
	delete(s.users, oid)
	return nil
}

func (s *MemoryStore) DeleteAllUsers(ctx context.Context) error {
	s.mu.Lock()
	s.users = make(map[primitive.ObjectID]models.User)
	s.mu.Unlock()
	return nil
}

// tokenize splits text into lowercase words.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// textScore mirrors the weighted trip text index: each query term found in a
// field adds that field's weight per occurrence.
func textScore(trip models.Trip, terms []string) float64 {
	fields := []struct {
		text   string
		weight int
	}{
		{trip.Name, models.WeightName},
		{trip.Resort, models.WeightResort},
		{trip.Category, models.WeightCategory},
		{trip.Description, models.WeightDescription},
	}

	score := 0
	for _, f := range fields {
		for _, word := range tokenize(f.text) {
			for _, term := range terms {
				if word == term {
					score += f.weight
				}
			}
		}
	}
	return float64(score)
}

func (s *MemoryStore) ListTrips(ctx context.Context, q TripQuery) ([]models.Trip, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Trip{}
	terms := tokenize(q.Search)
	for _, trip := range s.trips {
		switch {
		case q.Search != "":
			trip.Score = textScore(trip, terms)
			if trip.Score == 0 {
				continue
			}
		case q.Category != "" && q.Category != models.CategoryAll:
			if trip.Category != q.Category {
				continue
			}
		}
		matched = append(matched, trip)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		return matched[i].Code < matched[j].Code
	})

	total := int64(len(matched))
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Skip >= len(matched) {
		return []models.Trip{}, total, nil
	}
	matched = matched[q.Skip:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (s *MemoryStore) GetTrip(ctx context.Context, code string) (*models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &trip, nil
}

func (s *MemoryStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[trip.Code]; ok {
		return ErrDuplicate
	}
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	s.trips[trip.Code] = *trip
	return nil
}

func (s *MemoryStore) UpdateTrip(ctx context.Context, code string, trip *models.Trip) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.trips[code]
	if !ok {
		return nil, ErrNotFound
	}
	if trip.Code != code {
		if _, taken := s.trips[trip.Code]; taken {
			return nil, ErrDuplicate
		}
	}

	updated := *trip
	updated.ID = existing.ID
	updated.Score = 0
	delete(s.trips, code)
	s.trips[updated.Code] = updated
	return &updated, nil
}

func (s *MemoryStore) DeleteTrip(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[code]; !ok {
		return ErrNotFound
	}
	delete(s.trips, code)
	return nil
}

func (s *MemoryStore) ReplaceTrips(ctx context.Context, trips []models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make(map[string]models.Trip, len(trips))
	for i := range trips {
		if _, ok := replaced[trips[i].Code]; ok {
			return ErrDuplicate
		}
		if trips[i].ID.IsZero() {
			trips[i].ID = primitive.NewObjectID()
		}
		replaced[trips[i].Code] = trips[i]
	}
	s.trips = replaced
	return nil
}

func copyCart(c models.Cart) *models.Cart {
	items := make([]models.CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return &c
}

func (s *MemoryStore) GetOrCreateCart(ctx context.Context, userEmail string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userEmail]
	if !ok {
		cart = *models.NewCart(userEmail)
		cart.ID = primitive.NewObjectID()
		s.carts[userEmail] = cart
	}
	return copyCart(cart), nil
}

func (s *MemoryStore) FindCart(ctx context.Context, userEmail string) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userEmail]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCart(cart), nil
}

func (s *MemoryStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.CalculateTotals()
	cart.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.carts[cart.UserEmail]; ok {
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
	} else {
		if cart.ID.IsZero() {
			cart.ID = primitive.NewObjectID()
		}
		cart.CreatedAt = cart.UpdatedAt
	}
	s.carts[cart.UserEmail] = *copyCart(*cart)
	return nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := []models.Booking{}
	for _, b := range s.bookings {
		if filter.UserEmail != "" && b.UserEmail != filter.UserEmail {
			continue
		}
		bookings = append(bookings, b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].BookingDate.After(bookings[j].BookingDate)
	})
	return bookings, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[oid]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *MemoryStore) UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) (*models.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[oid]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(&b)
	b.UpdatedAt = time.Now().UTC()
	s.bookings[oid] = b
	return &b, nil
}

func (s *MemoryStore) DeleteBooking(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[oid]; !ok {
		return ErrNotFound
	}
	delete(s.bookings, oid)
	return nil
}
