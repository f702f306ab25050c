package domain

import (
	"encoding/json"
	"time"
)

// Rating bounds accepted by submit_review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating and optional comment left on one listing.
type Review struct {
	ID         string
	ReviewerID string
	Product    ProductRef
	Comment    string
	Rating     float64
	CreatedAt  time.Time

	// Reviewer is populated on reads only.
	Reviewer *Reviewer
}

// Reviewer is the public profile of a review author.
type Reviewer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

type reviewJSON struct {
	ID            string    `json:"id"`
	ReviewerID    string    `json:"reviewerID"`
	ProductType   string    `json:"productType"`
	ClinicID      string    `json:"clinicID,omitempty"`
	ServiceID     string    `json:"serviceID,omitempty"`
	PetFriendlyID string    `json:"petFriendlyID,omitempty"`
	Comment       string    `json:"comment"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"createdAt"`
	Reviewer      *Reviewer `json:"reviewer,omitempty"`
}

// MarshalJSON renders the review with the productType plus one typed id
// field clients already consume.
func (r Review) MarshalJSON() ([]byte, error) {
	clinicID, serviceID, petFriendlyID := r.Product.Fields()
	return json.Marshal(reviewJSON{
		ID:            r.ID,
		ReviewerID:    r.ReviewerID,
		ProductType:   string(r.Product.Kind),
		ClinicID:      clinicID,
		ServiceID:     serviceID,
		PetFriendlyID: petFriendlyID,
		Comment:       r.Comment,
		Rating:        r.Rating,
		CreatedAt:     r.CreatedAt,
		Reviewer:      r.Reviewer,
	})
}

// ReviewCreated is the payload of the review-created event.
type ReviewCreated struct {
	ReviewID   string     `json:"review_id"`
	ReviewerID string     `json:"reviewer_id"`
	Product    ProductRef `json:"product"`
	Rating     float64    `json:"rating"`
	Aggregate  Aggregate  `json:"aggregate"`
	CreatedAt  time.Time  `json:"created_at"`
}
