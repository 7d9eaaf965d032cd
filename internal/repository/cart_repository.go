package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/pkg/objectid"
)

// CartRepository handles persistence of cart selections.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository constructs the repository.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Insert adds a selection unless the (class_id, email) pair already
// exists. The unique constraint arbitrates concurrent identical adds;
// the return value reports whether a row was actually inserted.
func (r *CartRepository) Insert(ctx context.Context, item *models.CartItem) (bool, error) {
	if item.ID == "" {
		item.ID = objectid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cart_items (id, class_id, email, created_at)
        VALUES (:id, :class_id, :email, :created_at)
        ON CONFLICT (class_id, email) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return false, fmt.Errorf("insert cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert cart item rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListByEmail returns the cart joined with catalog info for display.
func (r *CartRepository) ListByEmail(ctx context.Context, email string) ([]models.CartItemDetail, error) {
	const query = `SELECT ci.id, ci.class_id, ci.email, ci.created_at,
        c.name AS class_name, c.image, c.instructor_name, c.available_seat, c.price
        FROM cart_items ci
        JOIN classes c ON c.id = ci.class_id
        WHERE ci.email = $1
        ORDER BY ci.created_at DESC`
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query, email); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return items, nil
}

// Delete removes the selection matching (class_id, email). Deleting an
// already-absent entry is not an error.
func (r *CartRepository) Delete(ctx context.Context, classID, email string) error {
	const query = `DELETE FROM cart_items WHERE class_id = $1 AND email = $2`
	if _, err := r.db.ExecContext(ctx, query, classID, email); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}
