package controllers

import (
	"errors"
	"net/http"

	"travlr/logging"
	"travlr/models"
	"travlr/services"
	"travlr/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// TripController handles catalog requests
type TripController struct {
	trips  *services.TripService
	logger zerolog.Logger
}

// NewTripController creates a new TripController
func NewTripController(trips *services.TripService, logger *zerolog.Logger) *TripController {
	return &TripController{trips: trips, logger: logging.Component(logger, "trip_controller")}
}

type tripRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Length      string  `json:"length" validate:"required"`
	Start       string  `json:"start" validate:"required,isodate"`
	Resort      string  `json:"resort" validate:"required"`
	PerPerson   float64 `json:"perPerson" validate:"required,gte=0"`
	Image       string  `json:"image" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"omitempty,oneof=beach cruise mountain other"`
}

func (req tripRequest) toTrip() *models.Trip {
	start, _ := utils.ParseDate(req.Start)
	return &models.Trip{
		Code:        req.Code,
		Name:        req.Name,
		Length:      req.Length,
		Start:       start,
		Resort:      req.Resort,
		PerPerson:   req.PerPerson,
		Image:       req.Image,
		Description: req.Description,
		Category:    req.Category,
	}
}

// GetTrips lists the catalog, searching by relevance when search is set
func (tc *TripController) GetTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := tc.trips.List(r.Context(), q.Get("search"), q.Get("category"), utils.PaginationFromQuery(r))
	if err != nil {
		writeServiceError(w, r, tc.logger, err)
		return
	}
	if page.Data == nil {
		page.Data = []models.Trip{}
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (tc *TripController) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := tc.trips.Get(r.Context(), mux.Vars(r)["tripCode"])
	if errors.Is(err, services.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, tc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, trip)
}

// CreateTrip adds a trip to the catalog (admin only)
func (tc *TripController) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	trip := req.toTrip()
	err := tc.trips.Create(r.Context(), trip)
	if errors.Is(err, services.ErrDuplicate) {
		utils.WriteError(w, http.StatusBadRequest, "Trip code already exists")
		return
	}
	if err != nil {
		writeServiceError(w, r, tc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, trip)
}

// UpdateTrip replaces the trip stored under the path code (admin only)
func (tc *TripController) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	trip, err := tc.trips.Update(r.Context(), mux.Vars(r)["tripCode"], req.toTrip())
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Trip not found")
	case errors.Is(err, services.ErrDuplicate):
		utils.WriteError(w, http.StatusBadRequest, "Trip code already exists")
	case err != nil:
		writeServiceError(w, r, tc.logger, err)
	default:
		utils.WriteJSON(w, http.StatusOK, trip)
	}
}

func (tc *TripController) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	err := tc.trips.Delete(r.Context(), mux.Vars(r)["tripCode"])
	if errors.Is(err, services.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, tc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
