package broker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopflow/internal/models"
)

func TestEventHandlerRoutesOrderCreated(t *testing.T) {
	handler := NewEventHandler()

	var got *models.OrderCreatedEvent
	handler.OnOrderCreated(func(_ context.Context, event *models.OrderCreatedEvent) error {
		got = event
		return nil
	})

	event := &models.OrderCreatedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     3,
		UserID:      7,
		TotalAmount: 20.00,
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)

	err = handler.HandleMessage(context.Background(), kafka.Message{Value: value})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.OrderID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, event.EventID, got.EventID)
}

func TestEventHandlerIgnoresUnknownTypes(t *testing.T) {
	handler := NewEventHandler()

	called := false
	handler.OnOrderCreated(func(context.Context, *models.OrderCreatedEvent) error {
		called = true
		return nil
	})

	value, err := json.Marshal(models.NewBaseEvent("SOMETHING_ELSE"))
	require.NoError(t, err)

	assert.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: value}))
	assert.False(t, called)
}

func TestEventHandlerWithoutCallback(t *testing.T) {
	handler := NewEventHandler()

	value, err := json.Marshal(models.NewBaseEvent(models.EventTypeOrderCreated))
	require.NoError(t, err)

	assert.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: value}))
}

func TestEventHandlerRejectsBadPayload(t *testing.T) {
	handler := NewEventHandler()

	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})

	assert.Error(t, err)
}

// Stream publishing is best-effort even when the producer was never built.
func TestNilStreamPublisher(t *testing.T) {
	var sp *StreamPublisher

	assert.NotPanics(t, func() {
		sp.PublishOrderCreated(context.Background(), &models.OrderCreatedEvent{})
		sp.PublishPaymentSettled(context.Background(), &models.PaymentSettledEvent{})
		sp.PublishNotificationCreated(context.Background(), &models.NotificationCreatedEvent{})
	})
}

func TestNilProducerIsUnavailable(t *testing.T) {
	var p *Producer

	err := p.PublishEvent(context.Background(), "order-events", "order-1", map[string]int{"orderId": 1})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, p.Close())
}
