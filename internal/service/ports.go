package service

import (
	"context"

	"shopflow/internal/models"
)

// OrderStore is the order persistence surface the order service needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID, paymentID int64) error
}

// PaymentStore is the payment persistence surface the payment service needs.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) (bool, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
}

// NotificationStore is the notification persistence surface the notification
// service needs.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	RecentNotificationsByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
}

// QueuePublisher publishes JSON payloads to the durable work queues.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, payload interface{}) error
}

// EventStream mirrors domain signals onto the append-only event log.
// Implementations are best-effort: failures are captured and logged, never
// returned.
type EventStream interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent)
	PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent)
	PublishNotificationCreated(ctx context.Context, event *models.NotificationCreatedEvent)
}

// Fanout propagates stored notifications to every instance's bridge.
type Fanout interface {
	PublishNotification(ctx context.Context, channel string, n *models.Notification) error
}

// HistoryCache fronts the notification history reads.
type HistoryCache interface {
	GetRecentNotifications(ctx context.Context, userID int64) ([]models.Notification, bool, error)
	SetRecentNotifications(ctx context.Context, userID int64, items []models.Notification) error
	InvalidateRecentNotifications(ctx context.Context, userID int64) error
}

// Broadcaster delivers a notification to sockets registered on this instance.
type Broadcaster interface {
	Broadcast(userID int64, n *models.Notification) int
}
