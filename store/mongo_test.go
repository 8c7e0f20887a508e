package store

import (
	"context"
	"testing"

	"travlr/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("GetTrip", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "travlr.trips", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "code", Value: "BCH01"},
			{Key: "name", Value: "Beach Paradise"},
			{Key: "perPerson", Value: 500.0},
		}))

		trip, err := s.GetTrip(ctx, "BCH01")
		require.NoError(mt, err)
		assert.Equal(mt, oid, trip.ID)
		assert.Equal(mt, "Beach Paradise", trip.Name)
		assert.Equal(mt, 500.0, trip.PerPerson)
	})

	mt.Run("GetTripNotFound", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "travlr.trips", mtest.FirstBatch))

		_, err := s.GetTrip(ctx, "MISSING")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("CreateTripDuplicate", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := s.CreateTrip(ctx, &models.Trip{Code: "BCH01"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("CreateUser", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Email: "user@travlr.com"}
		require.NoError(mt, s.CreateUser(ctx, user))
		assert.False(mt, user.ID.IsZero())
	})

	mt.Run("DeleteTripNotFound", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, s.DeleteTrip(ctx, "MISSING"), ErrNotFound)
	})

	mt.Run("DeleteTrip", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, s.DeleteTrip(ctx, "BCH01"))
	})

	mt.Run("ListTripsSearch", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "travlr.trips", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, "travlr.trips", mtest.FirstBatch,
				bson.D{{Key: "code", Value: "BCH01"}, {Key: "name", Value: "Beach Paradise"}, {Key: "score", Value: 13.0}},
				bson.D{{Key: "code", Value: "MTN01"}, {Key: "name", Value: "Alpine Escape"}, {Key: "score", Value: 1.0}},
			),
		)

		trips, total, err := s.ListTrips(ctx, TripQuery{Search: "beach", Limit: 10})
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), total)
		require.Len(mt, trips, 2)
		assert.Equal(mt, "BCH01", trips[0].Code)
		assert.Equal(mt, 13.0, trips[0].Score)
	})

	mt.Run("GetOrCreateCart", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "userEmail", Value: "user@travlr.com"},
			{Key: "items", Value: bson.A{}},
			{Key: "totalPrice", Value: 0.0},
			{Key: "itemCount", Value: 0},
		}}))

		cart, err := s.GetOrCreateCart(ctx, "user@travlr.com")
		require.NoError(mt, err)
		assert.Equal(mt, "user@travlr.com", cart.UserEmail)
		assert.NotNil(mt, cart.Items)
	})

	mt.Run("FindCartNotFound", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "travlr.carts", mtest.FirstBatch))

		_, err := s.FindCart(ctx, "user@travlr.com")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("SaveCartRecomputesTotals", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		cart := models.NewCart("user@travlr.com")
		cart.Items = append(cart.Items, models.CartItem{TripCode: "BCH01", Subtotal: 1000})
		cart.TotalPrice = 5
		require.NoError(mt, s.SaveCart(ctx, cart))
		assert.Equal(mt, 1000.0, cart.TotalPrice)
		assert.Equal(mt, 1, cart.ItemCount)
	})

	mt.Run("ListBookings", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "travlr.bookings", mtest.FirstBatch,
			bson.D{{Key: "tripCode", Value: "B"}, {Key: "userEmail", Value: "a@travlr.com"}},
			bson.D{{Key: "tripCode", Value: "A"}, {Key: "userEmail", Value: "a@travlr.com"}},
		))

		bookings, err := s.ListBookings(ctx, BookingFilter{UserEmail: "a@travlr.com"})
		require.NoError(mt, err)
		require.Len(mt, bookings, 2)
		assert.Equal(mt, "B", bookings[0].TripCode)
	})

	mt.Run("UpdateBooking", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "tripCode", Value: "A"},
			{Key: "status", Value: models.StatusConfirmed},
		}}))

		status := models.StatusConfirmed
		booking, err := s.UpdateBooking(ctx, oid.Hex(), models.BookingUpdate{Status: &status})
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusConfirmed, booking.Status)
	})

	mt.Run("InvalidBookingID", func(mt *mtest.T) {
		s := NewMongo(mt.DB)

		_, err := s.GetBooking(ctx, "not-hex")
		assert.ErrorIs(mt, err, ErrInvalidID)
		assert.ErrorIs(mt, s.DeleteBooking(ctx, "not-hex"), ErrInvalidID)
	})
}
