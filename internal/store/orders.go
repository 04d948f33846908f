package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
)

// CreateOrderFromCart runs the checkout as one transaction: insert the
// order snapshot, insert its items with captured prices, decrement
// product stock, and empty the cart. Partial application is never
// visible; the transaction commits or rolls back as a unit.
func (s *Store) CreateOrderFromCart(ctx context.Context, order *models.Order, items []models.OrderItem, cartID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_number, user_id, total, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, order, query,
		order.OrderNumber, order.UserID, order.Total, order.PaymentMethod, order.Status); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID

		if err := tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Name, items[i].Quantity, items[i].UnitPrice); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2",
			items[i].Quantity, items[i].ProductID); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return nil
}

// CancelOrder marks the order cancelled and restores the stock its
// items had consumed, atomically. Terminal orders are left untouched,
// so the losing side of a concurrent cancel restores nothing.
func (s *Store) CancelOrder(ctx context.Context, orderID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status NOT IN ($1, $3)",
		models.OrderStatusCancelled, orderID, models.OrderStatusDelivered)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %d is no longer cancellable", ErrConflict, orderID)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products p
		SET quantity = p.quantity + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id`, orderID); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	return tx.Commit()
}

// OrderFilter narrows order listings. A zero UserID means all users
// (elevated roles only).
type OrderFilter struct {
	UserID      int64
	Status      string
	OrderNumber string
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}

// ListOrders retrieves orders matching the filter, newest first, plus
// the total row count.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int, error) {
	conds := []string{"TRUE"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != 0 {
		conds = append(conds, "user_id = "+arg(f.UserID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.OrderNumber != "" {
		conds = append(conds, "order_number ILIKE "+arg("%"+f.OrderNumber+"%"))
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= "+arg(f.To))
	}

	where := " FROM orders WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+where, args...); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	query := "SELECT *" + where +
		" ORDER BY created_at DESC LIMIT " + arg(f.Limit) + " OFFSET " + arg((f.Page-1)*f.Limit)

	var orders []models.Order
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
