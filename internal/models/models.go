package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ErrValidation marks requests rejected for missing or empty required fields.
// Validation failures are surfaced synchronously and cause no side effects.
var ErrValidation = errors.New("validation failed")

// Order statuses
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Payment statuses
const (
	PaymentStatusCompleted = "completed"
)

// DefaultPaymentMethod is used for queue-driven payments; the payment-request
// payload carries no method field.
const DefaultPaymentMethod = "credit_card"

// Notification type tags
const (
	NotificationTypeOrder   = "order"
	NotificationTypePayment = "payment"
)

// LineItem is a single ordered item. The item list travels as an opaque
// structured payload and is stored denormalized on the order row.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderItems persists the item list as one JSON column.
type OrderItems []LineItem

// Value implements driver.Valuer.
func (oi OrderItems) Value() (driver.Value, error) {
	return json.Marshal(oi)
}

// Scan implements sql.Scanner.
func (oi *OrderItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*oi = nil
		return nil
	case []byte:
		return json.Unmarshal(v, oi)
	case string:
		return json.Unmarshal([]byte(v), oi)
	default:
		return fmt.Errorf("cannot scan order items from %T", src)
	}
}

// Order represents a customer order. Status moves pending -> paid; orders are
// never deleted by this system.
type Order struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"userId"`
	Items       OrderItems `db:"items" json:"items"`
	TotalAmount float64    `db:"total_amount" json:"totalAmount"`
	Status      string     `db:"status" json:"status"`
	PaymentID   *int64     `db:"payment_id" json:"paymentId,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// Payment represents a settled payment. At most one payment row exists per
// order (unique order_id); rows are immutable after insert.
type Payment struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"orderId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Amount    float64   `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Notification is a durable per-user notification record. It outlives the
// client connections it is pushed to and is immutable after creation.
type Notification struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"userId"`
	Type      string         `db:"type" json:"type"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Data      types.JSONText `db:"data" json:"data,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}
