package controllers

import (
	"bytes"
	"net/http"
	"time"

	"travlr/export"
	"travlr/logging"
	"travlr/models"
	"travlr/services"
	"travlr/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// BookingController handles booking requests
type BookingController struct {
	bookings *services.BookingService
	logger   zerolog.Logger
}

// NewBookingController creates a new BookingController
func NewBookingController(bookings *services.BookingService, logger *zerolog.Logger) *BookingController {
	return &BookingController{bookings: bookings, logger: logging.Component(logger, "booking_controller")}
}

type createBookingRequest struct {
	TripCode        string   `json:"tripCode" validate:"required"`
	TripName        string   `json:"tripName"`
	UserEmail       string   `json:"userEmail" validate:"required,email"`
	UserName        string   `json:"userName"`
	Travelers       int      `json:"travelers" validate:"required,min=1"`
	TotalPrice      *float64 `json:"totalPrice" validate:"omitempty,gte=0"`
	TravelDate      string   `json:"travelDate" validate:"required,isodate"`
	Status          string   `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	SpecialRequests string   `json:"specialRequests"`
	ContactPhone    string   `json:"contactPhone"`
}

type updateBookingRequest struct {
	Travelers       *int     `json:"travelers" validate:"omitempty,min=1"`
	TotalPrice      *float64 `json:"totalPrice" validate:"omitempty,gte=0"`
	TravelDate      *string  `json:"travelDate" validate:"omitempty,isodate"`
	Status          *string  `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	SpecialRequests *string  `json:"specialRequests"`
	ContactPhone    *string  `json:"contactPhone"`
}

func (req updateBookingRequest) toUpdate() models.BookingUpdate {
	update := models.BookingUpdate{
		Travelers:       req.Travelers,
		TotalPrice:      req.TotalPrice,
		SpecialRequests: req.SpecialRequests,
		ContactPhone:    req.ContactPhone,
	}
	if req.TravelDate != nil && *req.TravelDate != "" {
		t, _ := utils.ParseDate(*req.TravelDate)
		update.TravelDate = &t
	}
	if req.Status != nil && *req.Status != "" {
		update.Status = req.Status
	}
	return update
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

func writeBookings(w http.ResponseWriter, bookings []models.Booking) {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.WriteJSON(w, http.StatusOK, bookings)
}

// GetBookings lists all bookings for admins and the caller's own otherwise
func (bc *BookingController) GetBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	bookings, err := bc.bookings.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	writeBookings(w, bookings)
}

func (bc *BookingController) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if errs := utils.ValidateEmail("email", email); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	bookings, err := bc.bookings.ListByUser(r.Context(), p, email)
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	writeBookings(w, bookings)
}

func (bc *BookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	booking, err := bc.bookings.Get(r.Context(), p, mux.Vars(r)["bookingId"])
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, booking)
}

func (bc *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createBookingRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}
	travelDate, _ := utils.ParseDate(req.TravelDate)

	booking, err := bc.bookings.Create(r.Context(), p, services.CreateBookingInput{
		TripCode:        req.TripCode,
		TripName:        req.TripName,
		UserEmail:       req.UserEmail,
		UserName:        req.UserName,
		Travelers:       req.Travelers,
		TotalPrice:      req.TotalPrice,
		TravelDate:      travelDate,
		Status:          req.Status,
		SpecialRequests: req.SpecialRequests,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, booking)
}

func (bc *BookingController) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateBookingRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	booking, err := bc.bookings.Update(r.Context(), p, mux.Vars(r)["bookingId"], req.toUpdate())
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, booking)
}

func (bc *BookingController) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	booking, err := bc.bookings.UpdateStatus(r.Context(), p, mux.Vars(r)["bookingId"], req.Status)
	if err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, booking)
}

func (bc *BookingController) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := bc.bookings.Delete(r.Context(), p, mux.Vars(r)["bookingId"]); err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportBookings streams every booking as an XLSX workbook (admin only)
func (bc *BookingController) ExportBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := bc.bookings.Export(r.Context(), p, &buf); err != nil {
		writeServiceError(w, r, bc.logger, err)
		return
	}

	filename := "bookings-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
