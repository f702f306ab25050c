package domain

// Aggregate is the running mean rating of a listing and the number of
// reviews folded into it.
type Aggregate struct {
	Rating       float64 `json:"rating"`
	ReviewCounts int     `json:"review_counts"`
}

// Add folds one rating into the aggregate. The listing UPDATE in the
// postgres review repository evaluates the same expression in SQL.
func (a Aggregate) Add(rating float64) Aggregate {
	if a.ReviewCounts > 0 {
		a.Rating = (a.Rating*float64(a.ReviewCounts) + rating) / float64(a.ReviewCounts+1)
	} else {
		a.Rating = rating
	}
	a.ReviewCounts++
	return a
}
