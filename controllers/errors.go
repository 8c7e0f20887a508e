package controllers

import (
	"errors"
	"net/http"

	"travlr/middleware"
	"travlr/models"
	"travlr/services"
	"travlr/utils"

	"github.com/rs/zerolog"
)

// writeServiceError maps service errors onto HTTP statuses. Anything unknown
// is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrEmptyCart):
		utils.WriteError(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, services.ErrDuplicate):
		utils.WriteError(w, http.StatusBadRequest, "Already exists")
	case errors.Is(err, services.ErrInvalidID):
		utils.WriteError(w, http.StatusBadRequest, "Invalid id")
	case errors.Is(err, services.ErrUnknownUser):
		utils.WriteError(w, http.StatusUnauthorized, "Incorrect username.")
	case errors.Is(err, services.ErrWrongPassword):
		utils.WriteError(w, http.StatusUnauthorized, "Incorrect password.")
	default:
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// principal returns the authenticated caller. Routes that reach a handler
// without one are misconfigured, so the request is rejected.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Authorization header missing")
	}
	return p, ok
}

