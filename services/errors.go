package services

import (
	"errors"

	"travlr/store"
)

var (
	ErrForbidden     = errors.New("access denied")
	ErrNotFound      = store.ErrNotFound
	ErrDuplicate     = store.ErrDuplicate
	ErrInvalidID     = store.ErrInvalidID
	ErrEmptyCart     = errors.New("cart is empty")
	ErrUnknownUser   = errors.New("incorrect username")
	ErrWrongPassword = errors.New("incorrect password")
)
