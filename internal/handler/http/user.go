package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/middleware"
)

// Identity headers set on register and login responses.
const (
	headerUserID   = "user_id"
	headerUsername = "username"
)

// UserHandler handles HTTP requests for account endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"max=30"`
	Prefix      string `json:"prefix" validate:"max=20"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the JSON request body for updating a profile.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,max=50"`
	FirstName   *string `json:"firstName" validate:"omitempty,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=30"`
	Prefix      *string `json:"prefix" validate:"omitempty,max=20"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

// ForgotPasswordRequest is the JSON request body for forgot password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// --- Response types ---

type userResponse struct {
	User *domain.User `json:"user"`
}

type setSellerResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type checkLoginResponse struct {
	IsLogin bool `json:"isLogin"`
}

// --- Auth Handlers ---

// Register handles POST /user
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Prefix:      req.Prefix,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setIdentityHeaders(w, res.User)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// Login handles POST /user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setIdentityHeaders(w, res.User)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// CheckLogin handles GET /user/check-login. Auth middleware has already
// rejected requests without a valid token.
func (h *UserHandler) CheckLogin(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, checkLoginResponse{IsLogin: true})
}

// ForgotPassword handles POST /user/forgot-password
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password reset instructions sent"})
}

// ResetPassword handles POST /user/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully"})
}

// --- Profile Handlers ---

// GetProfile handles GET /user/info
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateProfile handles PATCH /user/info
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middleware.UserIDFromContext(r.Context()), service.UpdateProfileInput{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Prefix:      req.Prefix,
		ImageURL:    req.Image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// SetSeller handles PATCH /user/setseller/{id}
func (h *UserHandler) SetSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.SetSeller(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, setSellerResponse{
		ID:      id.String(),
		Message: "This user account has been set to be a seller",
	})
}

// Navbar handles GET /user/navbar
func (h *UserHandler) Navbar(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Navbar(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, info)
}

func setIdentityHeaders(w http.ResponseWriter, user *domain.User) {
	w.Header().Set(headerUserID, user.ID)
	w.Header().Set(headerUsername, user.Username)
}
