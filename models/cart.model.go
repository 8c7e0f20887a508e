package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTripImage is used for cart items added without an image
const DefaultTripImage = "default.jpg"

// CartItem represents a prospective booking in the cart
type CartItem struct {
	TripCode       string    `bson:"tripCode" json:"tripCode"`
	TripName       string    `bson:"tripName" json:"tripName"`
	TripImage      string    `bson:"tripImage" json:"tripImage"`
	Resort         string    `bson:"resort" json:"resort"`
	Length         string    `bson:"length" json:"length"`
	PricePerPerson float64   `bson:"pricePerPerson" json:"pricePerPerson"`
	Travelers      int       `bson:"travelers" json:"travelers"`
	TravelDate     time.Time `bson:"travelDate" json:"travelDate"`
	Subtotal       float64   `bson:"subtotal" json:"subtotal"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserEmail  string             `bson:"userEmail" json:"userEmail"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	ItemCount  int                `bson:"itemCount" json:"itemCount"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewCart returns an empty cart for the owner
func NewCart(userEmail string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserEmail: userEmail,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ComputeSubtotal sets the item subtotal from price and travelers
func (i *CartItem) ComputeSubtotal() {
	i.Subtotal = i.PricePerPerson * float64(i.Travelers)
}

// CalculateTotals recomputes the derived totals from the items.
// Every mutation of Items must be followed by a call.
func (c *Cart) CalculateTotals() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	total := 0.0
	for _, item := range c.Items {
		total += item.Subtotal
	}
	c.TotalPrice = total
	c.ItemCount = len(c.Items)
}

// FindItem returns the item for tripCode, or nil
func (c *Cart) FindItem(tripCode string) *CartItem {
	for i := range c.Items {
		if c.Items[i].TripCode == tripCode {
			return &c.Items[i]
		}
	}
	return nil
}

// UpsertItem overwrites travelers, date and subtotal of an existing item with
// the same trip code, or appends the item.
func (c *Cart) UpsertItem(item CartItem) {
	item.ComputeSubtotal()
	if existing := c.FindItem(item.TripCode); existing != nil {
		existing.Travelers = item.Travelers
		existing.TravelDate = item.TravelDate
		existing.Subtotal = item.Subtotal
	} else {
		c.Items = append(c.Items, item)
	}
	c.CalculateTotals()
}

// RemoveItem filters out the item for tripCode. Absent items are ignored.
func (c *Cart) RemoveItem(tripCode string) {
	updatedItems := []CartItem{}
	for _, item := range c.Items {
		if item.TripCode != tripCode {
			updatedItems = append(updatedItems, item)
		}
	}
	c.Items = updatedItems
	c.CalculateTotals()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.CalculateTotals()
}
