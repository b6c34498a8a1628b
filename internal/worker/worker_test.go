package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopflow/internal/broker"
	"shopflow/internal/models"
	"shopflow/internal/service"
)

type stubOrderStore struct {
	paid    map[int64]int64
	markErr error
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{paid: make(map[int64]int64)}
}

func (s *stubOrderStore) CreateOrder(context.Context, *models.Order) error { return nil }

func (s *stubOrderStore) GetOrderByID(context.Context, int64) (*models.Order, error) {
	return nil, errors.New("not found")
}

func (s *stubOrderStore) ListOrdersByUserID(context.Context, int64) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) MarkOrderPaid(_ context.Context, orderID, paymentID int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.paid[orderID] = paymentID
	return nil
}

type stubPaymentStore struct {
	byOrder map[int64]*models.Payment
	nextID  int64
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{byOrder: make(map[int64]*models.Payment)}
}

func (s *stubPaymentStore) CreatePayment(_ context.Context, p *models.Payment) (bool, error) {
	if existing, ok := s.byOrder[p.OrderID]; ok {
		*p = *existing
		return false, nil
	}
	s.nextID++
	p.ID = s.nextID
	cp := *p
	s.byOrder[p.OrderID] = &cp
	return true, nil
}

func (s *stubPaymentStore) GetPaymentByOrderID(_ context.Context, orderID int64) (*models.Payment, error) {
	p, ok := s.byOrder[orderID]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type stubNotificationStore struct {
	items     []*models.Notification
	createErr error
}

func (s *stubNotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	n.ID = int64(len(s.items) + 1)
	s.items = append(s.items, n)
	return nil
}

func (s *stubNotificationStore) RecentNotificationsByUser(context.Context, int64, int) ([]models.Notification, error) {
	return nil, nil
}

type stubQueue struct {
	published map[string][]interface{}
}

func newStubQueue() *stubQueue {
	return &stubQueue{published: make(map[string][]interface{})}
}

func (s *stubQueue) Publish(_ context.Context, queue string, payload interface{}) error {
	s.published[queue] = append(s.published[queue], payload)
	return nil
}

type stubStream struct{}

func (stubStream) PublishOrderCreated(context.Context, *models.OrderCreatedEvent)               {}
func (stubStream) PublishPaymentSettled(context.Context, *models.PaymentSettledEvent)           {}
func (stubStream) PublishNotificationCreated(context.Context, *models.NotificationCreatedEvent) {}

type stubFanout struct{}

func (stubFanout) PublishNotification(context.Context, string, *models.Notification) error {
	return nil
}

type stubCache struct{}

func (stubCache) GetRecentNotifications(context.Context, int64) ([]models.Notification, bool, error) {
	return nil, false, nil
}

func (stubCache) SetRecentNotifications(context.Context, int64, []models.Notification) error {
	return nil
}

func (stubCache) InvalidateRecentNotifications(context.Context, int64) error { return nil }

func newNotificationService(store *stubNotificationStore) *service.NotificationService {
	return service.NewNotificationService(store, stubFanout{}, stubCache{}, nil, stubStream{}, "notifications", 20)
}

func TestOrderStatusWorkerHandle(t *testing.T) {
	store := newStubOrderStore()
	orders := service.NewOrderService(store, newStubQueue(), stubStream{})
	w := NewOrderStatusWorker(nil, orders)

	err := w.handle(context.Background(), []byte(`{"orderId":3,"paymentId":42}`))

	require.NoError(t, err)
	assert.Equal(t, int64(42), store.paid[3])
}

func TestOrderStatusWorkerRejectsBadPayloads(t *testing.T) {
	orders := service.NewOrderService(newStubOrderStore(), newStubQueue(), stubStream{})
	w := NewOrderStatusWorker(nil, orders)

	assert.ErrorIs(t, w.handle(context.Background(), []byte("not json")), broker.ErrReject)
	assert.ErrorIs(t, w.handle(context.Background(), []byte(`{"orderId":3}`)), broker.ErrReject)
}

// Store failures are transient; they must requeue, not drop.
func TestOrderStatusWorkerStoreFailureRequeues(t *testing.T) {
	store := newStubOrderStore()
	store.markErr = errors.New("connection refused")
	orders := service.NewOrderService(store, newStubQueue(), stubStream{})
	w := NewOrderStatusWorker(nil, orders)

	err := w.handle(context.Background(), []byte(`{"orderId":3,"paymentId":42}`))

	require.Error(t, err)
	assert.False(t, errors.Is(err, broker.ErrReject))
}

func TestPaymentWorkerHandle(t *testing.T) {
	store := newStubPaymentStore()
	queue := newStubQueue()
	payments := service.NewPaymentService(store, queue, stubStream{})
	w := NewPaymentWorker(nil, payments)

	err := w.handle(context.Background(), []byte(`{"orderId":3,"userId":7,"amount":20}`))

	require.NoError(t, err)
	payment, err := store.GetPaymentByOrderID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Len(t, queue.published[models.QueuePaymentCompleted], 1)
}

func TestPaymentWorkerRejectsBadPayloads(t *testing.T) {
	payments := service.NewPaymentService(newStubPaymentStore(), newStubQueue(), stubStream{})
	w := NewPaymentWorker(nil, payments)

	assert.ErrorIs(t, w.handle(context.Background(), []byte("{")), broker.ErrReject)
	assert.ErrorIs(t, w.handle(context.Background(), []byte(`{"orderId":3,"userId":7}`)), broker.ErrReject)
}

func TestNotificationWorkerHandle(t *testing.T) {
	store := &stubNotificationStore{}
	w := NewNotificationWorker(nil, newNotificationService(store))

	err := w.handle(context.Background(), []byte(`{"userId":7,"type":"order","title":"Order Created","message":"Your order #3 has been created"}`))

	require.NoError(t, err)
	require.Len(t, store.items, 1)
	assert.Equal(t, "Order Created", store.items[0].Title)
}

func TestNotificationWorkerRejectsBadPayloads(t *testing.T) {
	w := NewNotificationWorker(nil, newNotificationService(&stubNotificationStore{}))

	assert.ErrorIs(t, w.handle(context.Background(), []byte("not json")), broker.ErrReject)
	assert.ErrorIs(t, w.handle(context.Background(), []byte(`{"userId":7}`)), broker.ErrReject)
}

func TestNotificationWorkerStoreFailureRequeues(t *testing.T) {
	store := &stubNotificationStore{createErr: errors.New("connection refused")}
	w := NewNotificationWorker(nil, newNotificationService(store))

	err := w.handle(context.Background(), []byte(`{"userId":7,"type":"order","title":"Order Created"}`))

	require.Error(t, err)
	assert.False(t, errors.Is(err, broker.ErrReject))
}

func TestRelayWorkerDerivesNotification(t *testing.T) {
	store := &stubNotificationStore{}
	w := NewRelayWorker(nil, newNotificationService(store))

	event := &models.OrderCreatedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     3,
		UserID:      7,
		TotalAmount: 20.00,
	}

	err := w.handleOrderCreated(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, store.items, 1)
	n := store.items[0]
	assert.Equal(t, int64(7), n.UserID)
	assert.Equal(t, models.NotificationTypeOrder, n.Type)
	assert.Equal(t, "Order Created", n.Title)
	assert.Contains(t, n.Message, "#3")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, float64(3), data["orderId"])
	assert.Equal(t, 20.00, data["totalAmount"])
}
