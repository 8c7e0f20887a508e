package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email string             `bson:"email" json:"email"`
	Name  string             `bson:"name" json:"name"`
	Role  string             `bson:"role" json:"role"` // "user" or "admin"
	Hash  string             `bson:"hash" json:"-"`
	Salt  string             `bson:"salt" json:"-"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may act on a resource owned by ownerEmail.
// Admins can access everything.
func (p Principal) CanAccess(ownerEmail string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Email != "" && strings.EqualFold(strings.TrimSpace(p.Email), strings.TrimSpace(ownerEmail))
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
