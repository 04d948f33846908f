package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// GetOrCreateCart returns the user's cart, creating it lazily on first
// use.
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if err == nil {
		return &cart, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at`

	if err := s.db.GetContext(ctx, &cart, query, userID); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartItems retrieves all line items of a cart
func (s *Store) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY id", cartID)
	return items, err
}

// UpsertCartItem appends a line or, if the product already has one,
// accumulates its quantity. The captured unit price of the first add
// wins.
func (s *Store) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, unit_price`

	return s.db.GetContext(ctx, item, query,
		item.CartID, item.ProductID, item.Quantity, item.UnitPrice)
}

// SetCartItemQuantity replaces a line's quantity
func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND product_id = $3",
		quantity, cartID, productID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: cart line for product %d", ErrNotFound, productID)
	}
	return nil
}

// RemoveCartItem removes a line
func (s *Store) RemoveCartItem(ctx context.Context, cartID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: cart line for product %d", ErrNotFound, productID)
	}
	return nil
}

// ClearCart removes every line from a cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return err
}
