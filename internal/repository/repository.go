package repository

import (
	"context"
	"time"

	"github.com/jubmeng/rainbow/internal/domain"
)

// ListingRepository defines persistence for clinics, services and
// pet-friendly places.
type ListingRepository interface {
	// Create inserts a new listing of l.Kind.
	Create(ctx context.Context, l *domain.Listing) error

	// Get retrieves the listing addressed by ref.
	Get(ctx context.Context, ref domain.ProductRef) (*domain.Listing, error)

	// List returns one page of listings of a kind ordered by rating
	// descending, along with the total count.
	List(ctx context.Context, kind domain.ProductKind, page, perPage int) ([]domain.Listing, int, error)

	// Update overwrites the descriptive fields of l. Rating state is never
	// written through this path; l receives the stored values.
	Update(ctx context.Context, l *domain.Listing) error

	// Exists reports whether ref addresses a stored listing.
	Exists(ctx context.Context, ref domain.ProductRef) (bool, error)
}

// ReviewRepository defines persistence for reviews.
type ReviewRepository interface {
	// CreateWithAggregate inserts review and folds its rating into the
	// listing aggregate atomically. It returns the listing's new aggregate.
	CreateWithAggregate(ctx context.Context, review *domain.Review) (domain.Aggregate, error)

	// ListByKind returns reviews of a kind, restricted to one listing when
	// productID is non-empty, ordered by rating descending.
	ListByKind(ctx context.Context, kind domain.ProductKind, productID string) ([]domain.Review, error)

	// GetByID retrieves a review with its author profile.
	GetByID(ctx context.Context, id string) (*domain.Review, error)
}

// UserRepository defines persistence for accounts.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update overwrites the profile fields of user.
	Update(ctx context.Context, user *domain.User) error

	// SetSeller flags the user as a seller.
	SetSeller(ctx context.Context, id string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SavedRepository defines persistence for per-user save-for-later sets.
type SavedRepository interface {
	// Add puts ref into the user's set. Adding an existing member is a no-op.
	Add(ctx context.Context, userID string, ref domain.ProductRef) error

	// Remove takes ref out of the user's set. Removing a non-member is a no-op.
	Remove(ctx context.Context, userID string, ref domain.ProductRef) error

	// List returns the saved listings of a user, most recently saved first.
	List(ctx context.Context, userID string) ([]domain.SavedListing, error)
}

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	// Save stores token for userID, expiring after ttl.
	Save(ctx context.Context, token, userID string, ttl time.Duration) error

	// Consume returns the user the token was issued for and deletes it.
	Consume(ctx context.Context, token string) (string, error)
}
