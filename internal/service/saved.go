package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/repository"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

// SavedService manages each user's save-for-later set.
type SavedService struct {
	saved    repository.SavedRepository
	listings repository.ListingRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewSavedService creates a new save-for-later service.
func NewSavedService(saved repository.SavedRepository, listings repository.ListingRepository, users repository.UserRepository, logger *slog.Logger) *SavedService {
	return &SavedService{
		saved:    saved,
		listings: listings,
		users:    users,
		logger:   logger,
	}
}

// List returns the user's saved listings, most recently saved first.
func (s *SavedService) List(ctx context.Context, userID string) ([]domain.SavedListing, error) {
	items, err := s.saved.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved items: %w", err)
	}
	if items == nil {
		items = []domain.SavedListing{}
	}
	return items, nil
}

// Add saves ref for the user. Saving the same listing twice leaves one entry.
func (s *SavedService) Add(ctx context.Context, userID string, ref domain.ProductRef) error {
	if !ref.Kind.Valid() {
		return apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	if ref.ID == "" {
		return apperrors.InvalidInput("productId is required")
	}

	exists, err := s.listings.Exists(ctx, ref)
	if err != nil {
		return fmt.Errorf("check saved listing: %w", err)
	}
	if !exists {
		return apperrors.NotFound(string(ref.Kind), ref.ID)
	}

	if err := s.saved.Add(ctx, userID, ref); err != nil {
		return fmt.Errorf("add saved item: %w", err)
	}

	s.logger.InfoContext(ctx, "listing saved for later",
		slog.String("user_id", userID),
		slog.String("listing", ref.String()),
	)
	return nil
}

// Remove drops ref from the user's set. Removing an unsaved listing is not
// an error, but the user must exist.
func (s *SavedService) Remove(ctx context.Context, userID string, ref domain.ProductRef) error {
	if !ref.Kind.Valid() {
		return apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	if ref.ID == "" {
		return apperrors.InvalidInput("productId is required")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user for saved item removal: %w", err)
	}

	if err := s.saved.Remove(ctx, userID, ref); err != nil {
		return fmt.Errorf("remove saved item: %w", err)
	}

	s.logger.InfoContext(ctx, "listing removed from save for later",
		slog.String("user_id", userID),
		slog.String("listing", ref.String()),
	)
	return nil
}
