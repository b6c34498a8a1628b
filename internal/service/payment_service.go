package service

import (
	"context"
	"fmt"
	"time"

	"shopflow/internal/models"
	"shopflow/internal/util"

	"go.uber.org/zap"
)

// PaymentService settles payment requests. Settlement is simulated: every
// request yields a completed payment, at most one per order.
type PaymentService struct {
	store  PaymentStore
	queue  QueuePublisher
	stream EventStream
	logger *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, queue QueuePublisher, stream EventStream) *PaymentService {
	return &PaymentService{
		store:  store,
		queue:  queue,
		stream: stream,
		logger: util.GetLogger(),
	}
}

// HandlePaymentRequest settles one queued payment request. A store failure or
// a failed completion publish is returned so the worker requeues the request;
// the order-id dedup on insert keeps the retry from minting a second payment.
func (ps *PaymentService) HandlePaymentRequest(ctx context.Context, msg *models.PaymentRequestMessage) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandlePaymentRequest")
	defer span.End()

	payment, err := ps.settle(ctx, msg.OrderID, msg.UserID, msg.Amount, models.DefaultPaymentMethod)
	if err != nil {
		return err
	}

	if err := ps.publishCompleted(ctx, payment); err != nil {
		return err
	}

	ps.mirrorSettlement(ctx, payment)
	return nil
}

// ProcessPayment settles a payment for a direct caller. Unlike the queue path
// there is no redelivery: persistence failures surface to the caller and a
// failed completion publish is logged, with the created record returned.
func (ps *PaymentService) ProcessPayment(ctx context.Context, orderID, userID int64, amount float64, method string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	if orderID == 0 || userID == 0 || amount <= 0 {
		return nil, fmt.Errorf("%w: payment needs orderId, userId and amount", models.ErrValidation)
	}
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	payment, err := ps.settle(ctx, orderID, userID, amount, method)
	if err != nil {
		return nil, err
	}

	if err := ps.publishCompleted(ctx, payment); err != nil {
		ps.logger.Error("Failed to publish payment completion",
			zap.Int64("order_id", payment.OrderID),
			zap.Int64("payment_id", payment.ID),
			zap.Error(err))
	}

	ps.mirrorSettlement(ctx, payment)
	return payment, nil
}

// settle persists the completed payment, deduplicating on order id: a
// duplicate request comes back with the already-stored payment.
func (ps *PaymentService) settle(ctx context.Context, orderID, userID int64, amount float64, method string) (*models.Payment, error) {
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	payment := &models.Payment{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Method:  method,
		Status:  models.PaymentStatusCompleted,
	}

	inserted, err := ps.store.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if !inserted {
		util.PaymentsDuplicateTotal.Inc()
		ps.logger.Warn("Duplicate payment request deduplicated",
			zap.Int64("order_id", orderID),
			zap.Int64("payment_id", payment.ID))
		return payment, nil
	}

	util.PaymentsProcessedTotal.Inc()
	ps.logger.Info("Payment settled",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", payment.ID),
		zap.Float64("amount", amount))
	return payment, nil
}

func (ps *PaymentService) publishCompleted(ctx context.Context, payment *models.Payment) error {
	err := ps.queue.Publish(ctx, models.QueuePaymentCompleted, &models.PaymentCompletedMessage{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to publish payment completion: %w", err)
	}
	return nil
}

// mirrorSettlement mirrors the settlement onto the payment events stream.
func (ps *PaymentService) mirrorSettlement(ctx context.Context, payment *models.Payment) {
	ps.stream.PublishPaymentSettled(ctx, &models.PaymentSettledEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentSettled),
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
		Method:    payment.Method,
	})
}

// GetPayment retrieves the payment for an order
func (ps *PaymentService) GetPayment(ctx context.Context, orderID int64) (*models.Payment, error) {
	return ps.store.GetPaymentByOrderID(ctx, orderID)
}
