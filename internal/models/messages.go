package models

import (
	"encoding/json"
	"fmt"
)

// Queue names shared by every service. Queues are durable point-to-point
// channels with acknowledge/negative-acknowledge delivery control; a message
// may be redelivered, so consumers must tolerate duplicates.
const (
	QueueOrderCreated     = "order-created"
	QueuePaymentRequest   = "payment-request"
	QueuePaymentCompleted = "payment-completed"
	QueueNotifications    = "notifications"
)

// OrderCreatedMessage announces a new order on the order-created queue.
// Nothing in this system consumes it; it exists for monitoring consumers.
type OrderCreatedMessage struct {
	OrderID     int64   `json:"orderId"`
	UserID      int64   `json:"userId"`
	TotalAmount float64 `json:"totalAmount"`
}

// PaymentRequestMessage asks the payment service to settle an order.
type PaymentRequestMessage struct {
	OrderID int64   `json:"orderId"`
	UserID  int64   `json:"userId"`
	Amount  float64 `json:"amount"`
}

// Validate rejects payloads missing required fields.
func (m *PaymentRequestMessage) Validate() error {
	if m.OrderID == 0 || m.UserID == 0 || m.Amount <= 0 {
		return fmt.Errorf("%w: payment request needs orderId, userId and amount", ErrValidation)
	}
	return nil
}

// PaymentCompletedMessage reports a settled payment back to the order service.
type PaymentCompletedMessage struct {
	OrderID   int64 `json:"orderId"`
	PaymentID int64 `json:"paymentId"`
}

// Validate rejects payloads missing required fields.
func (m *PaymentCompletedMessage) Validate() error {
	if m.OrderID == 0 || m.PaymentID == 0 {
		return fmt.Errorf("%w: payment completion needs orderId and paymentId", ErrValidation)
	}
	return nil
}

// NotificationRequestMessage carries a notification to persist and fan out.
type NotificationRequestMessage struct {
	UserID  int64           `json:"userId"`
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Validate rejects payloads missing required fields.
func (m *NotificationRequestMessage) Validate() error {
	if m.UserID == 0 || m.Type == "" || m.Title == "" {
		return fmt.Errorf("%w: notification needs userId, type and title", ErrValidation)
	}
	return nil
}
