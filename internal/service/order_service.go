package service

import (
	"context"
	"encoding/json"
	"fmt"

	"shopflow/internal/models"
	"shopflow/internal/util"

	"go.uber.org/zap"
)

// OrderService coordinates the order lifecycle: it persists orders, hands
// settlement to the payment service over the queue and applies completions
// coming back.
type OrderService struct {
	store  OrderStore
	queue  QueuePublisher
	stream EventStream
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, queue QueuePublisher, stream EventStream) *OrderService {
	return &OrderService{
		store:  store,
		queue:  queue,
		stream: stream,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	UserID      int64             `json:"userId" binding:"required"`
	Items       models.OrderItems `json:"items" binding:"required,min=1"`
	TotalAmount float64           `json:"totalAmount" binding:"required,gt=0"`
}

// Validate rejects requests missing required fields.
func (r *CreateOrderRequest) Validate() error {
	if r.UserID == 0 || len(r.Items) == 0 || r.TotalAmount <= 0 {
		return fmt.Errorf("%w: order needs userId, items and totalAmount", models.ErrValidation)
	}
	return nil
}

// CreateOrder persists a pending order, then fires the downstream signals:
// the order-created announcement, an "Order Created" notification request,
// the mirrored stream event and finally the payment request. The publishes
// are not transactional with the insert or with each other; each failure is
// logged and the order returned regardless.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := req.Validate(); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	order := &models.Order{
		UserID:      req.UserID,
		Items:       req.Items,
		TotalAmount: req.TotalAmount,
		Status:      models.OrderStatusPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID))

	s.publishQueue(ctx, models.QueueOrderCreated, &models.OrderCreatedMessage{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
	})

	data, _ := json.Marshal(map[string]interface{}{
		"orderId":     order.ID,
		"totalAmount": order.TotalAmount,
	})
	s.publishQueue(ctx, models.QueueNotifications, &models.NotificationRequestMessage{
		UserID:  order.UserID,
		Type:    models.NotificationTypeOrder,
		Title:   "Order Created",
		Message: fmt.Sprintf("Your order #%d has been created", order.ID),
		Data:    data,
	})

	s.stream.PublishOrderCreated(ctx, &models.OrderCreatedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       order.Items,
	})

	s.publishQueue(ctx, models.QueuePaymentRequest, &models.PaymentRequestMessage{
		OrderID: order.ID,
		UserID:  order.UserID,
		Amount:  order.TotalAmount,
	})

	return order, nil
}

// publishQueue sends one queue message; failures are logged, never returned.
func (s *OrderService) publishQueue(ctx context.Context, queue string, payload interface{}) {
	if err := s.queue.Publish(ctx, queue, payload); err != nil {
		util.OrdersFailedTotal.WithLabelValues("publish_error").Inc()
		s.logger.Error("Queue publish failed",
			zap.String("queue", queue),
			zap.Error(err))
	}
}

// HandlePaymentCompleted applies a settled payment to its order. The update
// writes the same values on every delivery, so redelivered completions are
// harmless; a store failure is returned so the worker sends the message back
// for redelivery.
func (s *OrderService) HandlePaymentCompleted(ctx context.Context, msg *models.PaymentCompletedMessage) error {
	ctx, span := util.StartSpan(ctx, "OrderService.HandlePaymentCompleted")
	defer span.End()

	if err := s.store.MarkOrderPaid(ctx, msg.OrderID, msg.PaymentID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to mark order %d paid: %w", msg.OrderID, err)
	}

	util.OrdersPaidTotal.Inc()
	s.logger.Info("Order paid",
		zap.Int64("order_id", msg.OrderID),
		zap.Int64("payment_id", msg.PaymentID))
	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// ListUserOrders retrieves a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.ListOrdersByUserID(ctx, userID)
}
