package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/repository"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
	"github.com/jubmeng/rainbow/pkg/pagination"
)

// ListingService implements the catalog of clinics, services and
// pet-friendly places.
type ListingService struct {
	listings repository.ListingRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(listings repository.ListingRepository, users repository.UserRepository, logger *slog.Logger) *ListingService {
	return &ListingService{
		listings: listings,
		users:    users,
		logger:   logger,
	}
}

// CreateListingInput holds the descriptive fields of a new listing.
type CreateListingInput struct {
	Name        string
	Description string
	Address     string
	Phone       string
	ImageURL    string
}

// UpdateListingInput holds the fields to change; nil fields are kept.
type UpdateListingInput struct {
	Name        *string
	Description *string
	Address     *string
	Phone       *string
	ImageURL    *string
}

// Create adds a listing of kind owned by ownerID. Only sellers may create
// listings. The new listing starts with no reviews.
func (s *ListingService) Create(ctx context.Context, ownerID string, kind domain.ProductKind, input *CreateListingInput) (*domain.Listing, error) {
	if !kind.Valid() {
		return nil, apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get listing owner: %w", err)
	}
	if !owner.IsSeller {
		return nil, apperrors.Forbidden("only sellers can create listings")
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:          uuid.New().String(),
		Kind:        kind,
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Address:     input.Address,
		Phone:       input.Phone,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.logger.InfoContext(ctx, "listing created",
		slog.String("listing", listing.Ref().String()),
		slog.String("owner_id", ownerID),
	)

	return listing, nil
}

// Get retrieves one listing.
func (s *ListingService) Get(ctx context.Context, ref domain.ProductRef) (*domain.Listing, error) {
	if !ref.Kind.Valid() {
		return nil, apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	listing, err := s.listings.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref.Kind, err)
	}
	return listing, nil
}

// List returns one page of listings of kind, highest rated first.
func (s *ListingService) List(ctx context.Context, kind domain.ProductKind, params pagination.Params) (pagination.Result[domain.Listing], error) {
	if !kind.Valid() {
		return pagination.Result[domain.Listing]{}, apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > pagination.MaxPerPage {
		params.PerPage = pagination.DefaultPerPage
	}

	listings, total, err := s.listings.List(ctx, kind, params.Page, params.PerPage)
	if err != nil {
		return pagination.Result[domain.Listing]{}, fmt.Errorf("list %s: %w", kind, err)
	}
	return pagination.NewResult(listings, total, params), nil
}

// Update changes the descriptive fields of a listing. Only its owner may
// update it; the rating and review count are never written here.
func (s *ListingService) Update(ctx context.Context, ownerID string, ref domain.ProductRef, input *UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, apperrors.Forbidden("only the owner can update this listing")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		listing.Name = name
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.Address != nil {
		listing.Address = *input.Address
	}
	if input.Phone != nil {
		listing.Phone = *input.Phone
	}
	if input.ImageURL != nil {
		listing.ImageURL = *input.ImageURL
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("update %s: %w", ref.Kind, err)
	}

	s.logger.InfoContext(ctx, "listing updated", slog.String("listing", ref.String()))

	return listing, nil
}
