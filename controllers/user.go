package controllers

import (
	"errors"
	"net/http"

	"travlr/logging"
	"travlr/services"
	"travlr/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// UserController handles registration, login and account requests
type UserController struct {
	auth   *services.AuthService
	logger zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, logger *zerolog.Logger) *UserController {
	return &UserController{auth: auth, logger: logging.Component(logger, "user_controller")}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	token, err := uc.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, services.ErrDuplicate) {
		utils.WriteError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if errs := utils.DecodeAndValidate(r, &req); errs != nil {
		utils.WriteValidationError(w, errs)
		return
	}

	token, err := uc.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// GetProfile returns the caller's own account
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := uc.auth.Profile(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	users, err := uc.auth.ListUsers(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (uc *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := uc.auth.GetUser(r.Context(), p, mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (uc *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := uc.auth.DeleteUser(r.Context(), p, mux.Vars(r)["userId"]); err != nil {
		writeServiceError(w, r, uc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
