package domain

import (
	"time"
)

// Listing is a reviewable clinic, service or pet-friendly place.
type Listing struct {
	ID          string      `json:"id"`
	Kind        ProductKind `json:"kind"`
	OwnerID     string      `json:"owner_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	ImageURL    string      `json:"image_url"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_counts"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Ref returns the ProductRef addressing l.
func (l *Listing) Ref() ProductRef {
	return ProductRef{Kind: l.Kind, ID: l.ID}
}

// Aggregate returns the rating state of l.
func (l *Listing) Aggregate() Aggregate {
	return Aggregate{Rating: l.Rating, ReviewCounts: l.ReviewCount}
}

// SavedListing is a listing as shown in a save-for-later list.
type SavedListing struct {
	Listing
	IsSaved bool      `json:"isSaved"`
	SavedAt time.Time `json:"saved_at"`
}
