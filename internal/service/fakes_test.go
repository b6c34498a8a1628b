package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shopflow/internal/models"
)

// fakeOrderStore keeps orders in memory and fails on demand.
type fakeOrderStore struct {
	orders    map[int64]*models.Order
	nextID    int64
	createErr error
	markErr   error
	markCalls int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderStore) ListOrdersByUserID(_ context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) MarkOrderPaid(_ context.Context, orderID, paymentID int64) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	order.Status = models.OrderStatusPaid
	order.PaymentID = &paymentID
	return nil
}

// fakePaymentStore deduplicates on order id like the real table does.
type fakePaymentStore struct {
	byOrder   map[int64]*models.Payment
	nextID    int64
	createErr error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byOrder: make(map[int64]*models.Payment)}
}

func (f *fakePaymentStore) CreatePayment(_ context.Context, payment *models.Payment) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if existing, ok := f.byOrder[payment.OrderID]; ok {
		*payment = *existing
		return false, nil
	}
	f.nextID++
	payment.ID = f.nextID
	payment.CreatedAt = time.Now()
	cp := *payment
	f.byOrder[payment.OrderID] = &cp
	return true, nil
}

func (f *fakePaymentStore) GetPaymentByOrderID(_ context.Context, orderID int64) (*models.Payment, error) {
	p, ok := f.byOrder[orderID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	cp := *p
	return &cp, nil
}

// fakeNotificationStore appends in insertion order; recent reads walk
// backwards.
type fakeNotificationStore struct {
	items     []*models.Notification
	nextID    int64
	createErr error
	listErr   error
	listCalls int
}

func (f *fakeNotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = time.Now()
	cp := *n
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeNotificationStore) RecentNotificationsByUser(_ context.Context, userID int64, limit int) ([]models.Notification, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Notification
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if f.items[i].UserID == userID {
			out = append(out, *f.items[i])
		}
	}
	return out, nil
}

// fakeQueue records published messages per queue, marshalled like the real
// publisher would.
type fakeQueue struct {
	published map[string][][]byte
	err       error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{published: make(map[string][][]byte)}
}

func (f *fakeQueue) Publish(_ context.Context, queue string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.published[queue] = append(f.published[queue], body)
	return nil
}

// fakeStream records mirrored events.
type fakeStream struct {
	orderCreated        []*models.OrderCreatedEvent
	paymentSettled      []*models.PaymentSettledEvent
	notificationCreated []*models.NotificationCreatedEvent
}

func (f *fakeStream) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) {
	f.orderCreated = append(f.orderCreated, e)
}

func (f *fakeStream) PublishPaymentSettled(_ context.Context, e *models.PaymentSettledEvent) {
	f.paymentSettled = append(f.paymentSettled, e)
}

func (f *fakeStream) PublishNotificationCreated(_ context.Context, e *models.NotificationCreatedEvent) {
	f.notificationCreated = append(f.notificationCreated, e)
}

// fakeFanout records pub/sub publishes.
type fakeFanout struct {
	published []*models.Notification
	channels  []string
	err       error
}

func (f *fakeFanout) PublishNotification(_ context.Context, channel string, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.channels = append(f.channels, channel)
	cp := *n
	f.published = append(f.published, &cp)
	return nil
}

// fakeHistoryCache is a map-backed stand-in for the Redis history cache.
type fakeHistoryCache struct {
	entries     map[int64][]models.Notification
	getErr      error
	invalidated []int64
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{entries: make(map[int64][]models.Notification)}
}

func (f *fakeHistoryCache) GetRecentNotifications(_ context.Context, userID int64) ([]models.Notification, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	items, ok := f.entries[userID]
	return items, ok, nil
}

func (f *fakeHistoryCache) SetRecentNotifications(_ context.Context, userID int64, items []models.Notification) error {
	f.entries[userID] = items
	return nil
}

func (f *fakeHistoryCache) InvalidateRecentNotifications(_ context.Context, userID int64) error {
	delete(f.entries, userID)
	f.invalidated = append(f.invalidated, userID)
	return nil
}

// fakeBroadcaster records direct local deliveries.
type fakeBroadcaster struct {
	delivered map[int64][]*models.Notification
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{delivered: make(map[int64][]*models.Notification)}
}

func (f *fakeBroadcaster) Broadcast(userID int64, n *models.Notification) int {
	cp := *n
	f.delivered[userID] = append(f.delivered[userID], &cp)
	return 1
}
