package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/pkg/database"
)

// savedListQuery joins saved_items with every listing table. Table names
// come from the kind whitelist, never from input.
var savedListQuery = buildSavedListQuery()

func buildSavedListQuery() string {
	parts := make([]string, 0, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		parts = append(parts, fmt.Sprintf(`
		SELECT '%s' AS kind, l.id, l.owner_id, l.name, l.description, l.address, l.phone, l.image_url,
		       l.rating, l.review_counts, l.created_at, l.updated_at, s.created_at AS saved_at
		FROM saved_items s
		JOIN %s l ON l.id = s.product_id
		WHERE s.user_id = $1 AND s.product_type = '%s'`, kind, kind.Table(), kind))
	}
	return strings.Join(parts, "\n\t\tUNION ALL") + `
		ORDER BY saved_at DESC`
}

// SavedRepository implements repository.SavedRepository using PostgreSQL.
type SavedRepository struct {
	pool database.DBTX
}

// NewSavedRepository creates a new PostgreSQL-backed save-for-later repository.
func NewSavedRepository(pool database.DBTX) *SavedRepository {
	return &SavedRepository{pool: pool}
}

// Add inserts ref into the user's set.
// Uses ON CONFLICT DO NOTHING for idempotent behavior.
func (r *SavedRepository) Add(ctx context.Context, userID string, ref domain.ProductRef) error {
	query := `
		INSERT INTO saved_items (user_id, product_type, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_type, product_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, userID, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("add saved item: %w", err)
	}

	return nil
}

// Remove deletes ref from the user's set. Deleting an absent item is not
// an error.
func (r *SavedRepository) Remove(ctx context.Context, userID string, ref domain.ProductRef) error {
	query := `DELETE FROM saved_items WHERE user_id = $1 AND product_type = $2 AND product_id = $3`

	if _, err := r.pool.Exec(ctx, query, userID, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("remove saved item: %w", err)
	}

	return nil
}

// List returns the user's saved listings, newest first.
func (r *SavedRepository) List(ctx context.Context, userID string) ([]domain.SavedListing, error) {
	rows, err := r.pool.Query(ctx, savedListQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved items: %w", err)
	}
	defer rows.Close()

	var items []domain.SavedListing
	for rows.Next() {
		var (
			item domain.SavedListing
			kind string
		)
		if err := rows.Scan(
			&kind,
			&item.ID,
			&item.OwnerID,
			&item.Name,
			&item.Description,
			&item.Address,
			&item.Phone,
			&item.ImageURL,
			&item.Rating,
			&item.ReviewCount,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("scan saved item: %w", err)
		}
		item.Kind = domain.ProductKind(kind)
		item.IsSaved = true
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved rows: %w", err)
	}

	if items == nil {
		items = []domain.SavedListing{}
	}

	return items, nil
}
