package export

import (
	"bytes"
	"testing"
	"time"

	"travlr/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWriteBookings(t *testing.T) {
	id := primitive.NewObjectID()
	bookings := []models.Booking{
		{
			ID:          id,
			TripCode:    "BCH01",
			TripName:    "Beach Paradise",
			UserEmail:   "ann@travlr.com",
			UserName:    "Ann",
			Travelers:   2,
			TotalPrice:  1000,
			BookingDate: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
			TravelDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:      models.StatusPending,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, id.Hex(), rows[1][0])
	assert.Equal(t, "Beach Paradise", rows[1][2])
	assert.Equal(t, "2", rows[1][5])
	assert.Equal(t, "1000", rows[1][6])
	assert.Equal(t, "2026-05-01 09:30", rows[1][7])
	assert.Equal(t, "2026-06-01", rows[1][8])
	assert.Equal(t, models.StatusPending, rows[1][9])
}

func TestWriteBookingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
