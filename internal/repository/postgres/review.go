package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/pkg/database"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

const reviewSelect = `
		SELECT r.id, r.reviewer_id, r.product_type, r.product_id, r.comment, r.rating, r.created_at,
		       u.id, u.username, u.image_url
		FROM reviews r
		LEFT JOIN users u ON u.id = r.reviewer_id`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// CreateWithAggregate folds review.Rating into the listing aggregate and
// inserts the review in one transaction. The aggregate is computed by a
// single UPDATE, so concurrent submissions serialise on the listing row and
// none is lost. When the listing does not exist nothing is written.
func (r *ReviewRepository) CreateWithAggregate(ctx context.Context, review *domain.Review) (_ domain.Aggregate, err error) {
	table, err := tableFor(review.Product.Kind)
	if err != nil {
		return domain.Aggregate{}, err
	}

	aggregateQuery := fmt.Sprintf(`
		UPDATE %s
		SET rating = CASE
		        WHEN review_counts > 0
		        THEN (rating * review_counts + $1::double precision) / (review_counts + 1)
		        ELSE $1::double precision
		    END,
		    review_counts = review_counts + 1,
		    updated_at = $2
		WHERE id = $3
		RETURNING rating, review_counts`, table)

	ctx, end := database.TraceQuery(ctx, "CreateReview", aggregateQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var agg domain.Aggregate
	err = tx.QueryRow(ctx, aggregateQuery, review.Rating, time.Now().UTC(), review.Product.ID).
		Scan(&agg.Rating, &agg.ReviewCounts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Aggregate{}, apperrors.NotFound(string(review.Product.Kind), review.Product.ID)
		}
		return domain.Aggregate{}, fmt.Errorf("update %s rating: %w", review.Product.Kind, err)
	}

	insertQuery := `
		INSERT INTO reviews (id, reviewer_id, product_type, product_id, comment, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, insertQuery,
		review.ID,
		review.ReviewerID,
		string(review.Product.Kind),
		review.Product.ID,
		review.Comment,
		review.Rating,
		review.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.Aggregate{}, apperrors.AlreadyExists("review", "id", review.ID)
		}
		return domain.Aggregate{}, fmt.Errorf("insert review: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Aggregate{}, fmt.Errorf("commit transaction: %w", err)
	}

	return agg, nil
}

// ListByKind returns the reviews of one kind, optionally restricted to a
// single listing, highest rating first.
func (r *ReviewRepository) ListByKind(ctx context.Context, kind domain.ProductKind, productID string) (_ []domain.Review, err error) {
	query := reviewSelect + `
		WHERE r.product_type = $1`
	args := []any{string(kind)}
	if productID != "" {
		query += ` AND r.product_id = $2`
		args = append(args, productID)
	}
	query += `
		ORDER BY r.rating DESC, r.created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// GetByID retrieves a review and its author.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := reviewSelect + `
		WHERE r.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return rv, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv          domain.Review
		productType string
		authorID    *string
		username    *string
		image       *string
	)
	err := row.Scan(
		&rv.ID,
		&rv.ReviewerID,
		&productType,
		&rv.Product.ID,
		&rv.Comment,
		&rv.Rating,
		&rv.CreatedAt,
		&authorID,
		&username,
		&image,
	)
	if err != nil {
		return nil, err
	}

	rv.Product.Kind = domain.ProductKind(productType)
	if authorID != nil {
		rv.Reviewer = &domain.Reviewer{ID: *authorID}
		if username != nil {
			rv.Reviewer.Username = *username
		}
		if image != nil {
			rv.Reviewer.Image = *image
		}
	}

	return &rv, nil
}
