package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travlr/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection    = "users"
	TripsCollection    = "trips"
	CartsCollection    = "carts"
	BookingsCollection = "bookings"

	TripTextIndex = "trip_text_index"
)

// MongoStore persists everything in one MongoDB database
type MongoStore struct {
	db       *mongo.Database
	users    *mongo.Collection
	trips    *mongo.Collection
	carts    *mongo.Collection
	bookings *mongo.Collection
}

// NewMongo creates a MongoStore over db
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       db,
		users:    db.Collection(UsersCollection),
		trips:    db.Collection(TripsCollection),
		carts:    db.Collection(CartsCollection),
		bookings: db.Collection(BookingsCollection),
	}
}

// EnsureIndexes creates the unique keys and the weighted trip text index
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	if _, err := s.trips.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "resort", Value: "text"},
				{Key: "category", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName(TripTextIndex).SetWeights(bson.D{
				{Key: "name", Value: models.WeightName},
				{Key: "resort", Value: models.WeightResort},
				{Key: "category", Value: models.WeightCategory},
				{Key: "description", Value: models.WeightDescription},
			}),
		},
	}); err != nil {
		return fmt.Errorf("trips indexes: %w", err)
	}

	if _, err := s.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userEmail", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("carts index: %w", err)
	}

	if _, err := s.bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "bookingDate", Value: -1}},
	}); err != nil {
		return fmt.Errorf("bookings index: %w", err)
	}

	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.users.InsertOne(ctx, user)
	return translate(err)
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"hash": 0, "salt": 0}).
		SetSort(bson.D{{Key: "email", Value: 1}})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAllUsers(ctx context.Context) error {
	_, err := s.users.DeleteMany(ctx, bson.M{})
	return err
}

// Trips

func (s *MongoStore) ListTrips(ctx context.Context, q TripQuery) ([]models.Trip, int64, error) {
	if q.Skip < 0 {
		q.Skip = 0
	}
	filter := bson.M{}
	opts := options.Find().SetSkip(int64(q.Skip)).SetLimit(int64(q.Limit))

	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
		score := bson.M{"$meta": "textScore"}
		opts.SetProjection(bson.M{"score": score}).
			SetSort(bson.D{{Key: "score", Value: score}})
	} else {
		if q.Category != "" && q.Category != models.CategoryAll {
			filter["category"] = q.Category
		}
		opts.SetSort(bson.D{{Key: "code", Value: 1}})
	}

	total, err := s.trips.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.trips.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	trips := []models.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

func (s *MongoStore) GetTrip(ctx context.Context, code string) (*models.Trip, error) {
	var trip models.Trip
	if err := s.trips.FindOne(ctx, bson.M{"code": code}).Decode(&trip); err != nil {
		return nil, translate(err)
	}
	return &trip, nil
}

func (s *MongoStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	_, err := s.trips.InsertOne(ctx, trip)
	return translate(err)
}

func tripFields(trip *models.Trip) bson.M {
	return bson.M{
		"code":        trip.Code,
		"name":        trip.Name,
		"length":      trip.Length,
		"start":       trip.Start,
		"resort":      trip.Resort,
		"perPerson":   trip.PerPerson,
		"image":       trip.Image,
		"description": trip.Description,
		"category":    trip.Category,
	}
}

func (s *MongoStore) UpdateTrip(ctx context.Context, code string, trip *models.Trip) (*models.Trip, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Trip
	err := s.trips.FindOneAndUpdate(ctx, bson.M{"code": code}, bson.M{"$set": tripFields(trip)}, opts).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *MongoStore) DeleteTrip(ctx context.Context, code string) error {
	res, err := s.trips.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ReplaceTrips(ctx context.Context, trips []models.Trip) error {
	if _, err := s.trips.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(trips) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(trips))
	for i := range trips {
		if trips[i].ID.IsZero() {
			trips[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, trips[i])
	}
	_, err := s.trips.InsertMany(ctx, docs)
	return translate(err)
}

// Carts

func (s *MongoStore) GetOrCreateCart(ctx context.Context, userEmail string) (*models.Cart, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"userEmail":  userEmail,
		"items":      []models.CartItem{},
		"totalPrice": 0.0,
		"itemCount":  0,
		"createdAt":  now,
		"updatedAt":  now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart models.Cart
	if err := s.carts.FindOneAndUpdate(ctx, bson.M{"userEmail": userEmail}, update, opts).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *MongoStore) FindCart(ctx context.Context, userEmail string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.carts.FindOne(ctx, bson.M{"userEmail": userEmail}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// SaveCart writes the items and derived totals. Totals are recomputed first.
func (s *MongoStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.CalculateTotals()
	cart.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"items":      cart.Items,
			"totalPrice": cart.TotalPrice,
			"itemCount":  cart.ItemCount,
			"updatedAt":  cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": cart.UpdatedAt},
	}
	_, err := s.carts.UpdateOne(ctx, bson.M{"userEmail": cart.UserEmail}, update, options.Update().SetUpsert(true))
	return translate(err)
}

// Bookings

func (s *MongoStore) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := bson.M{}
	if filter.UserEmail != "" {
		query["userEmail"] = filter.UserEmail
	}
	opts := options.Find().SetSort(bson.D{{Key: "bookingDate", Value: -1}})
	cursor, err := s.bookings.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *MongoStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var booking models.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *MongoStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	_, err := s.bookings.InsertOne(ctx, booking)
	return translate(err)
}

func bookingFields(update models.BookingUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Travelers != nil {
		set["travelers"] = *update.Travelers
	}
	if update.TotalPrice != nil {
		set["totalPrice"] = *update.TotalPrice
	}
	if update.TravelDate != nil {
		set["travelDate"] = *update.TravelDate
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.SpecialRequests != nil {
		set["specialRequests"] = *update.SpecialRequests
	}
	if update.ContactPhone != nil {
		set["contactPhone"] = *update.ContactPhone
	}
	return set
}

func (s *MongoStore) UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) (*models.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err = s.bookings.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bookingFields(update)}, opts).Decode(&booking)
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *MongoStore) DeleteBooking(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.bookings.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
