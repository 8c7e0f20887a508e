package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"travlr/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("cart of x: %w", services.ErrForbidden), http.StatusForbidden, "Access denied"},
		{fmt.Errorf("trip X: %w", services.ErrNotFound), http.StatusNotFound, "Not found"},
		{services.ErrEmptyCart, http.StatusBadRequest, "Cart is empty"},
		{services.ErrDuplicate, http.StatusBadRequest, "Already exists"},
		{services.ErrInvalidID, http.StatusBadRequest, "Invalid id"},
		{services.ErrUnknownUser, http.StatusUnauthorized, "Incorrect username."},
		{services.ErrWrongPassword, http.StatusUnauthorized, "Incorrect password."},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest("GET", "/api/bookings", nil), zerolog.Nop(), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"message":"`+tt.message+`"}`, rec.Body.String())
		})
	}
}

func TestPrincipalMissing(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := principal(rec, httptest.NewRequest("GET", "/api/profile", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
