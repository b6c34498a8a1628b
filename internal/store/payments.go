package store

import (
	"context"
	"database/sql"
	"fmt"

	"shopflow/internal/models"
)

// CreatePayment inserts a payment, deduplicating on order_id. A redelivered
// payment request that already settled becomes a detectable no-op: the stored
// row is loaded back into payment and inserted reports false.
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) (inserted bool, err error) {
	query := `
		INSERT INTO payments (order_id, user_id, amount, method, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING id, created_at`

	err = s.db.GetContext(ctx, payment, query,
		payment.OrderID, payment.UserID, payment.Amount, payment.Method, payment.Status)
	if err == nil {
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	existing, err := s.GetPaymentByOrderID(ctx, payment.OrderID)
	if err != nil {
		return false, err
	}
	*payment = *existing
	return false, nil
}

// GetPaymentByOrderID retrieves the payment settling an order.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for order: %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
