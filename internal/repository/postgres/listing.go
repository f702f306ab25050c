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

const listingColumns = `id, owner_id, name, description, address, phone, image_url, rating, review_counts, created_at, updated_at`

// ListingRepository implements repository.ListingRepository using one
// PostgreSQL table per listing kind.
type ListingRepository struct {
	pool database.DBTX
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(pool database.DBTX) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func tableFor(kind domain.ProductKind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("%w: got %q", domain.ErrUnknownProductType, kind)
	}
	return table, nil
}

// Create inserts a new listing.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (err error) {
	table, err := tableFor(l.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, table, listingColumns)

	ctx, end := database.TraceQuery(ctx, "CreateListing", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		l.ID,
		l.OwnerID,
		l.Name,
		l.Description,
		l.Address,
		l.Phone,
		l.ImageURL,
		l.Rating,
		l.ReviewCount,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists(string(l.Kind), "id", l.ID)
		}
		return fmt.Errorf("insert %s: %w", l.Kind, err)
	}

	return nil
}

// Get retrieves a listing by kind and id.
func (r *ListingRepository) Get(ctx context.Context, ref domain.ProductRef) (l *domain.Listing, err error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, listingColumns, table)

	ctx, end := database.TraceQuery(ctx, "GetListing", query)
	defer func() { end(err) }()

	l, err = scanListing(r.pool.QueryRow(ctx, query, ref.ID), ref.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(string(ref.Kind), ref.ID)
		}
		return nil, fmt.Errorf("get %s: %w", ref.Kind, err)
	}

	return l, nil
}

// List returns a page of listings ordered by rating descending and the
// total number of listings of the kind.
func (r *ListingRepository) List(ctx context.Context, kind domain.ProductKind, page, perPage int) (_ []domain.Listing, _ int, err error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}

	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM %s
		ORDER BY rating DESC, created_at DESC
		LIMIT $1 OFFSET $2`, listingColumns, table)

	ctx, end := database.TraceQuery(ctx, "ListListings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var (
		listings   []domain.Listing
		totalCount int
	)
	for rows.Next() {
		l := domain.Listing{Kind: kind}
		if err := rows.Scan(
			&l.ID,
			&l.OwnerID,
			&l.Name,
			&l.Description,
			&l.Address,
			&l.Phone,
			&l.ImageURL,
			&l.Rating,
			&l.ReviewCount,
			&l.CreatedAt,
			&l.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan %s row: %w", kind, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s rows: %w", kind, err)
	}

	if listings == nil {
		listings = []domain.Listing{}
	}

	return listings, totalCount, nil
}

// Update writes the descriptive fields of l and reloads the stored row
// into it, so l reflects the current rating state.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) (err error) {
	table, err := tableFor(l.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, address = $3, phone = $4, image_url = $5, updated_at = $6
		WHERE id = $7
		RETURNING %s`, table, listingColumns)

	ctx, end := database.TraceQuery(ctx, "UpdateListing", query)
	defer func() { end(err) }()

	updated, err := scanListing(r.pool.QueryRow(ctx, query,
		l.Name,
		l.Description,
		l.Address,
		l.Phone,
		l.ImageURL,
		time.Now().UTC(),
		l.ID,
	), l.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound(string(l.Kind), l.ID)
		}
		return fmt.Errorf("update %s: %w", l.Kind, err)
	}

	*l = *updated
	return nil
}

// Exists reports whether a listing addressed by ref is stored.
func (r *ListingRepository) Exists(ctx context.Context, ref domain.ProductRef) (bool, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, ref.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", ref.Kind, err)
	}

	return exists, nil
}

func scanListing(row pgx.Row, kind domain.ProductKind) (*domain.Listing, error) {
	l := domain.Listing{Kind: kind}
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Name,
		&l.Description,
		&l.Address,
		&l.Phone,
		&l.ImageURL,
		&l.Rating,
		&l.ReviewCount,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
