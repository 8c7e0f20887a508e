package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking represents a trip reservation owned by one user
type Booking struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	TripCode        string             `bson:"tripCode" json:"tripCode"`
	TripName        string             `bson:"tripName" json:"tripName"`
	UserEmail       string             `bson:"userEmail" json:"userEmail"`
	UserName        string             `bson:"userName" json:"userName"`
	Travelers       int                `bson:"travelers" json:"travelers"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	BookingDate     time.Time          `bson:"bookingDate" json:"bookingDate"`
	TravelDate      time.Time          `bson:"travelDate" json:"travelDate"`
	Status          string             `bson:"status" json:"status"` // pending, confirmed, cancelled, completed
	SpecialRequests string             `bson:"specialRequests" json:"specialRequests"`
	ContactPhone    string             `bson:"contactPhone" json:"contactPhone"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BookingUpdate carries the mutable booking fields. Nil fields are left unchanged.
type BookingUpdate struct {
	Travelers       *int
	TotalPrice      *float64
	TravelDate      *time.Time
	Status          *string
	SpecialRequests *string
	ContactPhone    *string
}

// Apply writes the non-nil fields onto b
func (u BookingUpdate) Apply(b *Booking) {
	if u.Travelers != nil {
		b.Travelers = *u.Travelers
	}
	if u.TotalPrice != nil {
		b.TotalPrice = *u.TotalPrice
	}
	if u.TravelDate != nil {
		b.TravelDate = *u.TravelDate
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.SpecialRequests != nil {
		b.SpecialRequests = *u.SpecialRequests
	}
	if u.ContactPhone != nil {
		b.ContactPhone = *u.ContactPhone
	}
}

// ValidStatus reports whether s is a known booking status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
