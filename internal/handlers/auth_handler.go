package handlers

import (
	"net/http"

	"github.com/securebank/backend/internal/middleware"
	"github.com/securebank/backend/internal/services"
)

type AuthHandler struct {
	auth      Authentication
	validator *services.ValidationHelper
}

func NewAuthHandler(auth Authentication) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: services.NewValidationHelper(),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a user with a funded checking account and a savings account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration details"
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	resp, err := h.auth.Register(r.Context(), req)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles user authentication
// @Summary User login
// @Description Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login credentials"
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout revokes the bearer token
// @Summary User logout
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, expiresAt := middleware.TokenFromContext(r.Context())
	h.auth.Logout(r.Context(), token, expiresAt)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
