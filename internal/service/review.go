package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/repository"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

// MaxCommentLength is the longest review comment accepted, in characters.
const MaxCommentLength = 2000

// ReviewService implements review submission and lookup.
type ReviewService struct {
	repo      repository.ReviewRepository
	events    ReviewEvents
	submitted *prometheus.CounterVec
	logger    *slog.Logger
}

// NewReviewService creates a new review service. The submission counter is
// registered on reg.
func NewReviewService(repo repository.ReviewRepository, events ReviewEvents, reg prometheus.Registerer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:   repo,
		events: events,
		submitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Total number of reviews accepted, by listing kind.",
		}, []string{"kind"}),
		logger: logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	ReviewerID string
	Product    domain.ProductRef
	Comment    string
	Rating     float64
}

// SubmitReview stores a review and folds its rating into the listing's
// running mean in one transaction.
func (s *ReviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	if err := validateSubmitReview(input); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		ReviewerID: input.ReviewerID,
		Product:    input.Product,
		Comment:    input.Comment,
		Rating:     input.Rating,
		CreatedAt:  time.Now().UTC(),
	}

	agg, err := s.repo.CreateWithAggregate(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	s.submitted.WithLabelValues(string(review.Product.Kind)).Inc()

	if err := s.events.PublishReviewCreated(ctx, domain.ReviewCreated{
		ReviewID:   review.ID,
		ReviewerID: review.ReviewerID,
		Product:    review.Product,
		Rating:     review.Rating,
		Aggregate:  agg,
		CreatedAt:  review.CreatedAt,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product", review.Product.String()),
		slog.Float64("rating", review.Rating),
		slog.Float64("listing_rating", agg.Rating),
		slog.Int("review_counts", agg.ReviewCounts),
	)

	return review, nil
}

func validateSubmitReview(input *SubmitReviewInput) error {
	if input.ReviewerID == "" {
		return apperrors.InvalidInput("reviewerID is required")
	}
	if !input.Product.Kind.Valid() {
		return apperrors.InvalidInput(domain.ErrUnknownProductType.Error())
	}
	if input.Product.ID == "" {
		return apperrors.InvalidInput(domain.ErrInvalidProductRef.Error())
	}
	if _, err := uuid.Parse(input.Product.ID); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("%s id must be a valid UUID", input.Product.Kind))
	}
	if math.IsNaN(input.Rating) || input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if utf8.RuneCountInString(input.Comment) > MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}
	return nil
}

// ListReviews returns the reviews of one kind, optionally restricted to a
// single listing, highest rated first. An unknown kind fails before the
// store is touched.
func (s *ReviewService) ListReviews(ctx context.Context, kind, productID string) ([]domain.Review, error) {
	k, err := domain.ParseProductKind(kind)
	if err != nil {
		return nil, apperrors.InternalMessage("UNKNOWN_PRODUCT_TYPE", domain.ErrUnknownProductType.Error(), err)
	}
	if productID != "" {
		if _, err := uuid.Parse(productID); err != nil {
			return nil, apperrors.InvalidInput("id must be a valid UUID")
		}
	}

	reviews, err := s.repo.ListByKind(ctx, k, productID)
	if err != nil {
		return nil, fmt.Errorf("list %s reviews: %w", k, err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// GetReview retrieves one review by id.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}
