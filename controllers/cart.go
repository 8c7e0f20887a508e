package controllers

import (
	"net/http"
	"time"

	"travlr/logging"
	"travlr/models"
	"travlr/services"
	"travlr/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CartController handles cart requests. Every route is keyed by the owner's email.
type CartController struct {
	carts  *services.CartService
	logger zerolog.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, logger *zerolog.Logger) *CartController {
	return &CartController{carts: carts, logger: logging.Component(logger, "cart_controller")}
}

type cartItemRequest struct {
	TripCode       string  `json:"tripCode" validate:"required"`
	TripName       string  `json:"tripName" validate:"required"`
	TripImage      string  `json:"tripImage"`
	Resort         string  `json:"resort"`
	Length         string  `json:"length"`
	PricePerPerson float64 `json:"pricePerPerson" validate:"required,gte=0"`
	Travelers      int     `json:"travelers" validate:"required,min=1"`
	TravelDate     string  `json:"travelDate" validate:"required,isodate"`
}

type cartItemUpdateRequest struct {
	Travelers  *int    `json:"travelers" validate:"omitempty,min=1"`
	TravelDate *string `json:"travelDate" validate:"omitempty,isodate"`
}

type checkoutRequest struct {
	UserName        string `json:"userName" validate:"omitempty,max=100"`
	ContactPhone    string `json:"contactPhone"`
	SpecialRequests string `json:"specialRequests"`
}

// owner validates the {email} path parameter and returns the caller
func (cc *CartController) owner(w http.ResponseWriter, r *http.Request) (models.Principal, string, bool) {
	email := mux.Vars(r)["email"]
	if errs := utils.ValidateEmail("email", email); errs != nil {
		utils.WriteValidationError(w, errs)
		return models.Principal{}, "", false
	}
	p, ok := principal(w, r)
	return p, email, ok
}

// GetCart returns the cart, creating an empty one on first access
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	cart, err := cc.carts.Get(r.Context(), p, email)
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// AddToCart adds a trip or overwrites the existing item for the same trip
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}
	travelDate, _ := utils.ParseDate(req.TravelDate)

	cart, err := cc.carts.AddItem(r.Context(), p, email, models.CartItem{
		TripCode:       req.TripCode,
		TripName:       req.TripName,
		TripImage:      req.TripImage,
		Resort:         req.Resort,
		Length:         req.Length,
		PricePerPerson: req.PricePerPerson,
		Travelers:      req.Travelers,
		TravelDate:     travelDate,
	})
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	var req cartItemUpdateRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	update := services.CartItemUpdate{Travelers: req.Travelers}
	if req.TravelDate != nil {
		t, _ := utils.ParseDate(*req.TravelDate)
		update.TravelDate = &t
	}

	cart, err := cc.carts.UpdateItem(r.Context(), p, email, mux.Vars(r)["tripCode"], update)
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	cart, err := cc.carts.RemoveItem(r.Context(), p, email, mux.Vars(r)["tripCode"])
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	cart, err := cc.carts.Clear(r.Context(), p, email)
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// Checkout turns the cart into pending bookings. The body is optional.
func (cc *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	p, email, ok := cc.owner(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if r.ContentLength != 0 {
		if errs := utils.DecodeAndValidate(r, &req); errs != nil {
			utils.WriteValidationError(w, errs)
			return
		}
	}

	start := time.Now()
	result, err := cc.carts.Checkout(r.Context(), p, email, services.CheckoutRequest{
		UserName:        req.UserName,
		ContactPhone:    req.ContactPhone,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeServiceError(w, r, cc.logger, err)
		return
	}
	cc.logger.Info().
		Str("user_email", email).
		Int("bookings", result.BookingCount).
		Dur("duration", time.Since(start)).
		Msg("checkout completed")
	utils.WriteJSON(w, http.StatusCreated, result)
}
