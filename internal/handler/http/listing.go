package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/middleware"
	"github.com/jubmeng/rainbow/pkg/pagination"
)

// ListingHandler handles HTTP requests for clinic, service and
// pet-friendly listings. Each method returns the handler for one kind.
type ListingHandler struct {
	service *service.ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new listing HTTP handler.
func NewListingHandler(svc *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateListingRequest is the JSON request body for creating a listing.
type CreateListingRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=30"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// UpdateListingRequest is the JSON request body for updating a listing.
type UpdateListingRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

type listingResponse struct {
	Listing *domain.Listing `json:"listing"`
}

// --- Handlers ---

// Create handles POST /{kind}
func (h *ListingHandler) Create(kind domain.ProductKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateListingRequest
		if !decodeRequest(w, r, &req, h.logger) {
			return
		}

		listing, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), kind, &service.CreateListingInput{
			Name:        req.Name,
			Description: req.Description,
			Address:     req.Address,
			Phone:       req.Phone,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, listingResponse{Listing: listing})
	}
}

// List handles GET /{kind}?page=&per_page=
func (h *ListingHandler) List(kind domain.ProductKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.service.List(r.Context(), kind, pagination.FromRequest(r))
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

// Get handles GET /{kind}/{id}
func (h *ListingHandler) Get(kind domain.ProductKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
		if !ok {
			return
		}

		listing, err := h.service.Get(r.Context(), domain.ProductRef{Kind: kind, ID: id.String()})
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, listingResponse{Listing: listing})
	}
}

// Update handles PUT /{kind}/{id}
func (h *ListingHandler) Update(kind domain.ProductKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
		if !ok {
			return
		}

		var req UpdateListingRequest
		if !decodeRequest(w, r, &req, h.logger) {
			return
		}

		ref := domain.ProductRef{Kind: kind, ID: id.String()}
		listing, err := h.service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), ref, &service.UpdateListingInput{
			Name:        req.Name,
			Description: req.Description,
			Address:     req.Address,
			Phone:       req.Phone,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, listingResponse{Listing: listing})
	}
}
