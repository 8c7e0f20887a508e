package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"travlr/models"
	"travlr/services"
	"travlr/store"
	"travlr/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeedFile(t *testing.T) {
	data, err := os.ReadFile("../../configs/seed.yaml")
	require.NoError(t, err)

	trips, err := parseSeed(data)
	require.NoError(t, err)
	require.NotEmpty(t, trips)

	codes := map[string]bool{}
	for _, trip := range trips {
		assert.False(t, codes[trip.Code], "duplicate code %s", trip.Code)
		codes[trip.Code] = true
		assert.True(t, models.ValidCategory(trip.Category))
		assert.Positive(t, trip.PerPerson)
		assert.False(t, trip.Start.IsZero())
	}
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	_, err := parseSeed([]byte("trips:\n  - code: X1\n    start: someday\n"))
	assert.Error(t, err)

	_, err = parseSeed([]byte("trips:\n  - code: X1\n    start: 2026-01-01\n    category: desert\n"))
	assert.Error(t, err)

	trips, err := parseSeed([]byte("trips:\n  - code: X1\n    start: 2026-01-01\n"))
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, trips[0].Category)
}

func TestReseed(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	st := store.NewMemory()
	auth := services.NewAuthService(st, utils.NewTokenManager("secret", time.Hour), utils.PasswordHasher{Iterations: 1000}, nil, time.Second, &logger)

	stale, err := auth.NewUser("Stale", "stale@travlr.com", "stale1234", "")
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(ctx, stale))

	trips := []models.Trip{{Code: "BCH01", Name: "Beach Paradise", PerPerson: 500, Category: models.CategoryBeach}}

	var out bytes.Buffer
	require.NoError(t, reseed(ctx, st, auth, trips, &out, &logger))
	assert.Contains(t, out.String(), "inserted 1 trips")

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = st.GetUserByEmail(ctx, "stale@travlr.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = auth.Login(ctx, "admin@travlr.com", "admin1234")
	require.NoError(t, err)

	admin, err := st.GetUserByEmail(ctx, "admin@travlr.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	// running twice leaves the same state
	require.NoError(t, reseed(ctx, st, auth, trips, io.Discard, &logger))
	users, err = st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
