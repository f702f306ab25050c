package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/middleware"
)

// SavedHandler handles HTTP requests for the save-for-later list.
type SavedHandler struct {
	service *service.SavedService
	logger  *slog.Logger
}

// NewSavedHandler creates a new save-for-later HTTP handler.
func NewSavedHandler(svc *service.SavedService, logger *slog.Logger) *SavedHandler {
	return &SavedHandler{service: svc, logger: logger}
}

// SavedItemRequest names one listing to add or remove.
type SavedItemRequest struct {
	ProductType string `json:"productType" validate:"required"`
	ProductID   string `json:"productId" validate:"required,uuid"`
}

// List handles GET /user/save-for-later
func (h *SavedHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, items)
}

// Add handles PATCH /user/save-for-later
func (h *SavedHandler) Add(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.decodeRef(w, r)
	if !ok {
		return
	}

	if err := h.service.Add(r.Context(), middleware.UserIDFromContext(r.Context()), ref); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("productId %s added to save for later", ref.ID),
	})
}

// Remove handles DELETE /user/save-for-later
func (h *SavedHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.decodeRef(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), ref); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("productId %s deleted from save for later", ref.ID),
	})
}

func (h *SavedHandler) decodeRef(w http.ResponseWriter, r *http.Request) (domain.ProductRef, bool) {
	var req SavedItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return domain.ProductRef{}, false
	}

	kind, err := domain.ParseProductKind(req.ProductType)
	if err != nil {
		httputil.WriteBadRequest(w, r, domain.ErrUnknownProductType.Error())
		return domain.ProductRef{}, false
	}
	return domain.ProductRef{Kind: kind, ID: req.ProductID}, true
}
