package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"shopflow/internal/broker"
	"shopflow/internal/models"
	"shopflow/internal/service"
)

// OrderStatusWorker consumes payment completions and transitions orders to
// paid.
type OrderStatusWorker struct {
	consumer *broker.QueueConsumer
	orders   *service.OrderService
}

// NewOrderStatusWorker creates a new order status worker
func NewOrderStatusWorker(consumer *broker.QueueConsumer, orders *service.OrderService) *OrderStatusWorker {
	return &OrderStatusWorker{consumer: consumer, orders: orders}
}

// Start starts the worker
func (w *OrderStatusWorker) Start(ctx context.Context) error {
	log.Println("Starting order status worker...")
	return w.consumer.StartConsuming(ctx, w.handle)
}

// Stop stops the worker
func (w *OrderStatusWorker) Stop() error {
	log.Println("Stopping order status worker...")
	return w.consumer.Close()
}

func (w *OrderStatusWorker) handle(ctx context.Context, body []byte) error {
	var msg models.PaymentCompletedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}
	return w.orders.HandlePaymentCompleted(ctx, &msg)
}

// PaymentWorker consumes payment requests and settles them.
type PaymentWorker struct {
	consumer *broker.QueueConsumer
	payments *service.PaymentService
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.QueueConsumer, payments *service.PaymentService) *PaymentWorker {
	return &PaymentWorker{consumer: consumer, payments: payments}
}

// Start starts the payment worker
func (w *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")
	return w.consumer.StartConsuming(ctx, w.handle)
}

// Stop stops the payment worker
func (w *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return w.consumer.Close()
}

func (w *PaymentWorker) handle(ctx context.Context, body []byte) error {
	var msg models.PaymentRequestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}
	return w.payments.HandlePaymentRequest(ctx, &msg)
}

// NotificationWorker consumes notification requests, persisting and fanning
// out each one.
type NotificationWorker struct {
	consumer      *broker.QueueConsumer
	notifications *service.NotificationService
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.QueueConsumer, notifications *service.NotificationService) *NotificationWorker {
	return &NotificationWorker{consumer: consumer, notifications: notifications}
}

// Start starts the notification worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.handle)
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handle(ctx context.Context, body []byte) error {
	var msg models.NotificationRequestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrReject, err)
	}

	if _, err := w.notifications.CreateFromRequest(ctx, &msg); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return fmt.Errorf("%w: %v", broker.ErrReject, err)
		}
		return err
	}
	return nil
}
