package postgres

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/pkg/database"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const (
	clinicID   = "7f1c2b9e-4d6a-4c1e-9a51-2f8b7d3e6c10"
	reviewerID = "0b8f6a3c-1e2d-4f5a-8b7c-9d0e1f2a3b4c"
	reviewID   = "c3d4e5f6-a7b8-4c9d-8e0f-1a2b3c4d5e6f"
)

// ─── Listing column definitions ────────────────────────────────────────────

var listingCols = []string{
	"id", "owner_id", "name", "description", "address", "phone", "image_url",
	"rating", "review_counts", "created_at", "updated_at",
}

func sampleListing() domain.Listing {
	return domain.Listing{
		ID:          clinicID,
		Kind:        domain.KindClinic,
		OwnerID:     reviewerID,
		Name:        "Happy Paws Clinic",
		Description: "24h veterinary clinic",
		Address:     "12 Sukhumvit Rd",
		Phone:       "+66 2 123 4567",
		ImageURL:    "https://cdn.example.com/clinic.png",
		Rating:      4.5,
		ReviewCount: 2,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func listingRow(l domain.Listing) []any {
	return []any{
		l.ID, l.OwnerID, l.Name, l.Description, l.Address, l.Phone, l.ImageURL,
		l.Rating, l.ReviewCount, l.CreatedAt, l.UpdatedAt,
	}
}

// ─── Review column definitions ─────────────────────────────────────────────

var reviewCols = []string{
	"id", "reviewer_id", "product_type", "product_id", "comment", "rating", "created_at",
	"author_id", "username", "image_url",
}

func sampleReview() domain.Review {
	return domain.Review{
		ID:         reviewID,
		ReviewerID: reviewerID,
		Product:    domain.ProductRef{Kind: domain.KindClinic, ID: clinicID},
		Comment:    "Great vets",
		Rating:     4,
		CreatedAt:  now,
	}
}

func reviewRow(r domain.Review, author, username, image *string) []any {
	return []any{
		r.ID, r.ReviewerID, string(r.Product.Kind), r.Product.ID, r.Comment, r.Rating, r.CreatedAt,
		author, username, image,
	}
}

// ─── User column definitions ───────────────────────────────────────────────

var userCols = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name",
	"phone_number", "prefix", "image_url", "is_seller", "created_at", "updated_at",
}

func sampleUser() domain.User {
	return domain.User{
		ID:           reviewerID,
		Username:     "somchai",
		Email:        "somchai@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Somchai",
		LastName:     "Jaidee",
		PhoneNumber:  "0812345678",
		Prefix:       "Mr.",
		ImageURL:     "",
		IsSeller:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRow(u domain.User) []any {
	return []any{
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.PhoneNumber, u.Prefix, u.ImageURL, u.IsSeller, u.CreatedAt, u.UpdatedAt,
	}
}
