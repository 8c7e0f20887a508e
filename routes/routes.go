// routes/routes.go
package routes

import (
	"net/http"

	"travlr/controllers"
	"travlr/middleware"
	"travlr/utils"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers mounted by RegisterRoutes
type Controllers struct {
	Users    *controllers.UserController
	Trips    *controllers.TripController
	Carts    *controllers.CartController
	Bookings *controllers.BookingController
	Health   *controllers.HealthController
}

// Limiters holds the attempt limiters for the credential endpoints. Nil disables one.
type Limiters struct {
	Login    *middleware.AttemptLimiter
	Register *middleware.AttemptLimiter
}

func limited(l *middleware.AttemptLimiter, h http.HandlerFunc) http.Handler {
	if l == nil {
		return h
	}
	return l.Middleware(h)
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, tokens *utils.TokenManager, c Controllers, l Limiters) {
	auth := middleware.AuthMiddleware(tokens)
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth(middleware.AdminMiddleware(h)) }

	router.HandleFunc("/healthz", c.Health.Healthz).Methods("GET")
	router.HandleFunc("/readyz", c.Health.Readyz).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.Handle("/register", limited(l.Register, c.Users.Register)).Methods("POST")
	api.Handle("/login", limited(l.Login, c.Users.Login)).Methods("POST")

	// Trip routes
	api.HandleFunc("/trips", c.Trips.GetTrips).Methods("GET")
	api.HandleFunc("/trips/{tripCode}", c.Trips.GetTrip).Methods("GET")
	api.Handle("/trips", admin(c.Trips.CreateTrip)).Methods("POST")
	api.Handle("/trips/{tripCode}", admin(c.Trips.UpdateTrip)).Methods("PUT")
	api.Handle("/trips/{tripCode}", admin(c.Trips.DeleteTrip)).Methods("DELETE")

	// User routes
	api.Handle("/profile", authed(c.Users.GetProfile)).Methods("GET")
	api.Handle("/users", admin(c.Users.ListUsers)).Methods("GET")
	api.Handle("/users/{userId}", admin(c.Users.GetUser)).Methods("GET")
	api.Handle("/users/{userId}", admin(c.Users.DeleteUser)).Methods("DELETE")

	// Booking routes; export must precede {bookingId}
	api.Handle("/bookings", authed(c.Bookings.GetBookings)).Methods("GET")
	api.Handle("/bookings", authed(c.Bookings.CreateBooking)).Methods("POST")
	api.Handle("/bookings/export", admin(c.Bookings.ExportBookings)).Methods("GET")
	api.Handle("/bookings/user/{email}", authed(c.Bookings.GetUserBookings)).Methods("GET")
	api.Handle("/bookings/{bookingId}", authed(c.Bookings.GetBooking)).Methods("GET")
	api.Handle("/bookings/{bookingId}", authed(c.Bookings.UpdateBooking)).Methods("PUT")
	api.Handle("/bookings/{bookingId}", authed(c.Bookings.DeleteBooking)).Methods("DELETE")
	api.Handle("/bookings/{bookingId}/status", authed(c.Bookings.UpdateBookingStatus)).Methods("PATCH")

	// Cart routes
	api.Handle("/cart/{email}", authed(c.Carts.GetCart)).Methods("GET")
	api.Handle("/cart/{email}", authed(c.Carts.ClearCart)).Methods("DELETE")
	api.Handle("/cart/{email}/items", authed(c.Carts.AddToCart)).Methods("POST")
	api.Handle("/cart/{email}/items/{tripCode}", authed(c.Carts.UpdateCartItem)).Methods("PUT")
	api.Handle("/cart/{email}/items/{tripCode}", authed(c.Carts.RemoveFromCart)).Methods("DELETE")
	api.Handle("/cart/{email}/checkout", authed(c.Carts.Checkout)).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
