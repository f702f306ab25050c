package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/middleware"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Review ReviewFields `json:"review" validate:"required"`
}

// ReviewFields carries the review in the wire shape clients send: a
// productType plus the one id field matching it.
type ReviewFields struct {
	ReviewerID    string  `json:"reviewerID"`
	ProductType   string  `json:"productType" validate:"required"`
	ClinicID      string  `json:"clinicID" validate:"omitempty,uuid"`
	ServiceID     string  `json:"serviceID" validate:"omitempty,uuid"`
	PetFriendlyID string  `json:"petFriendlyID" validate:"omitempty,uuid"`
	Comment       string  `json:"comment" validate:"max=2000"`
	Rating        float64 `json:"rating" validate:"required,gte=1,lte=5"`
}

// --- Response types ---

type reviewResponse struct {
	Review *domain.Review `json:"review"`
}

type reviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
}

// --- Handlers ---

// SubmitReview handles POST /review
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	in := req.Review
	ref, err := domain.RefFromFields(in.ProductType, in.ClinicID, in.ServiceID, in.PetFriendlyID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProductType) {
			httputil.WriteBadRequest(w, r, domain.ErrUnknownProductType.Error())
			return
		}
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	reviewerID := in.ReviewerID
	if reviewerID == "" {
		reviewerID = userID
	}
	if reviewerID != userID {
		httputil.WriteError(w, r, apperrors.Forbidden("reviewerID must be the signed-in user"), h.logger)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), &service.SubmitReviewInput{
		ReviewerID: reviewerID,
		Product:    ref,
		Comment:    in.Comment,
		Rating:     in.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, reviewResponse{Review: review})
}

// ListReviews handles GET /review/{type}?id=
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "type"), r.URL.Query().Get("id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviewsResponse{Reviews: reviews})
}

// GetReview handles GET /review/info/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviewResponse{Review: review})
}
