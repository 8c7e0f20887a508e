package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CategoryBeach    = "beach"
	CategoryCruise   = "cruise"
	CategoryMountain = "mountain"
	CategoryOther    = "other"

	// CategoryAll disables category filtering in trip listings
	CategoryAll = "all"
)

// Text index weights for trip search, highest first
const (
	WeightName        = 10
	WeightResort      = 5
	WeightCategory    = 3
	WeightDescription = 1
)

// Trip represents a travel package in the catalog
type Trip struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Code        string             `bson:"code" json:"code"`
	Name        string             `bson:"name" json:"name"`
	Length      string             `bson:"length" json:"length"`
	Start       time.Time          `bson:"start" json:"start"`
	Resort      string             `bson:"resort" json:"resort"`
	PerPerson   float64            `bson:"perPerson" json:"perPerson"`
	Image       string             `bson:"image" json:"image"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Score       float64            `bson:"score,omitempty" json:"score,omitempty"` // text search relevance
}

// ValidCategory reports whether c is one of the known trip categories
func ValidCategory(c string) bool {
	switch c {
	case CategoryBeach, CategoryCruise, CategoryMountain, CategoryOther:
		return true
	}
	return false
}
