package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the append-only event streams. The streams are a
// secondary, best-effort propagation path; losing an event never blows back
// into the queue flow.
const (
	EventTypeOrderCreated        = "ORDER_CREATED"
	EventTypePaymentSettled      = "PAYMENT_SETTLED"
	EventTypeNotificationCreated = "NOTIFICATION_CREATED"
)

// BaseEvent contains common fields for all stream events.
type BaseEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh envelope for the given event type.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// OrderCreatedEvent mirrors an order creation onto the order-events stream.
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64      `json:"orderId"`
	UserID      int64      `json:"userId"`
	TotalAmount float64    `json:"totalAmount"`
	Items       OrderItems `json:"items"`
}

// PaymentSettledEvent mirrors a settled payment onto the payment-events stream.
type PaymentSettledEvent struct {
	BaseEvent
	PaymentID int64   `json:"paymentId"`
	OrderID   int64   `json:"orderId"`
	UserID    int64   `json:"userId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

// NotificationCreatedEvent mirrors a stored notification onto the user-events
// stream.
type NotificationCreatedEvent struct {
	BaseEvent
	NotificationID int64  `json:"notificationId"`
	UserID         int64  `json:"userId"`
	Type           string `json:"type"`
	Title          string `json:"title"`
}
