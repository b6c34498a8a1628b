package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"shopflow/internal/models"
	"shopflow/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StreamPublisher mirrors domain signals onto the event-log topics. The
// streams are a secondary propagation path: every publish is best-effort,
// failures are logged and counted, never returned to the caller.
type StreamPublisher struct {
	producer           *Producer
	topicOrderEvents   string
	topicUserEvents    string
	topicPaymentEvents string
	logger             *zap.Logger
}

// NewStreamPublisher creates a stream publisher over the shared producer.
func NewStreamPublisher(producer *Producer, orderTopic, userTopic, paymentTopic string) *StreamPublisher {
	return &StreamPublisher{
		producer:           producer,
		topicOrderEvents:   orderTopic,
		topicUserEvents:    userTopic,
		topicPaymentEvents: paymentTopic,
		logger:             util.GetLogger(),
	}
}

// PublishOrderCreated mirrors an order creation onto the order events topic.
func (sp *StreamPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) {
	if sp == nil {
		return
	}
	key := fmt.Sprintf("order-%d", event.OrderID)
	sp.publish(ctx, sp.topicOrderEvents, key, event)
}

// PublishPaymentSettled mirrors a settled payment onto the payment events topic.
func (sp *StreamPublisher) PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) {
	if sp == nil {
		return
	}
	key := fmt.Sprintf("payment-%d", event.PaymentID)
	sp.publish(ctx, sp.topicPaymentEvents, key, event)
}

// PublishNotificationCreated mirrors a stored notification onto the user
// events topic.
func (sp *StreamPublisher) PublishNotificationCreated(ctx context.Context, event *models.NotificationCreatedEvent) {
	if sp == nil {
		return
	}
	key := fmt.Sprintf("user-%d", event.UserID)
	sp.publish(ctx, sp.topicUserEvents, key, event)
}

func (sp *StreamPublisher) publish(ctx context.Context, topic, key string, event interface{}) {
	if err := sp.producer.PublishEvent(ctx, topic, key, event); err != nil {
		util.StreamPublishFailuresTotal.WithLabelValues(topic).Inc()
		sp.logger.Warn("Event stream publish failed",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
	}
}

// EventHandler routes stream messages to registered callbacks.
type EventHandler struct {
	onOrderCreated func(context.Context, *models.OrderCreatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderCreated registers a handler for OrderCreated events
func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreatedEvent) error) {
	eh.onOrderCreated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		if eh.onOrderCreated != nil {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
			}
			return eh.onOrderCreated(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
