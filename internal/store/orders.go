package store

import (
	"context"
	"database/sql"
	"fmt"

	"shopflow/internal/models"
)

// CreateOrder inserts a new pending order. Items are stored denormalized on
// the order row.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, items, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.UserID, order.Items, order.TotalAmount, order.Status)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUserID retrieves a user's orders, newest first.
func (s *Store) ListOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// MarkOrderPaid records the paid transition and the settling payment. The
// update writes the same values on every call, so redelivered completions
// are harmless.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID, paymentID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_id = $2, updated_at = NOW() WHERE id = $3",
		models.OrderStatusPaid, paymentID, orderID)
	return err
}
