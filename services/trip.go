package services

import (
	"context"
	"strings"
	"time"

	"travlr/models"
	"travlr/store"
)

// TripPage is one page of catalog results
type TripPage struct {
	Data       []models.Trip     `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// TripService serves catalog reads and admin edits
type TripService struct {
	trips   store.TripStore
	timeout time.Duration
}

func NewTripService(trips store.TripStore, timeout time.Duration) *TripService {
	return &TripService{trips: trips, timeout: timeout}
}

// List searches by relevance when search is set, otherwise filters by category
func (s *TripService) List(ctx context.Context, search, category string, page models.Pagination) (*TripPage, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := store.TripQuery{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
		Skip:     page.Skip(),
		Limit:    page.Limit,
	}
	trips, total, err := s.trips.ListTrips(ctx, q)
	if err != nil {
		return nil, err
	}
	return &TripPage{Data: trips, Pagination: page.WithTotal(total)}, nil
}

func (s *TripService) Get(ctx context.Context, code string) (*models.Trip, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.trips.GetTrip(ctx, code)
}

func (s *TripService) Create(ctx context.Context, trip *models.Trip) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if trip.Category == "" {
		trip.Category = models.CategoryOther
	}
	return s.trips.CreateTrip(ctx, trip)
}

func (s *TripService) Update(ctx context.Context, code string, trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if trip.Category == "" {
		trip.Category = models.CategoryOther
	}
	return s.trips.UpdateTrip(ctx, code, trip)
}

func (s *TripService) Delete(ctx context.Context, code string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.trips.DeleteTrip(ctx, code)
}
