package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"shopflow/internal/broker"
	"shopflow/internal/models"
	"shopflow/internal/service"
)

// RelayWorker tails the order events stream and derives user notifications
// from it. The stream is a best-effort path: failures are logged and the
// offset moves on, so this worker never blocks or retries.
type RelayWorker struct {
	consumer      *broker.Consumer
	eventHandler  *broker.EventHandler
	notifications *service.NotificationService
}

// NewRelayWorker creates a new relay worker
func NewRelayWorker(consumer *broker.Consumer, notifications *service.NotificationService) *RelayWorker {
	eventHandler := broker.NewEventHandler()

	w := &RelayWorker{
		consumer:      consumer,
		eventHandler:  eventHandler,
		notifications: notifications,
	}
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	return w
}

// Start starts the relay worker
func (w *RelayWorker) Start(ctx context.Context) error {
	log.Println("Starting event relay worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the relay worker
func (w *RelayWorker) Stop() error {
	log.Println("Stopping event relay worker...")
	return w.consumer.Close()
}

func (w *RelayWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	data, _ := json.Marshal(map[string]interface{}{
		"orderId":     event.OrderID,
		"totalAmount": event.TotalAmount,
	})

	_, err := w.notifications.CreateNotification(ctx, event.UserID,
		models.NotificationTypeOrder,
		"Order Created",
		fmt.Sprintf("Your order #%d has been created", event.OrderID),
		data)
	if err != nil {
		return fmt.Errorf("failed to derive notification from order %d: %w", event.OrderID, err)
	}
	return nil
}
