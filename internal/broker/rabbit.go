package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopflow/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrUnavailable marks queue operations attempted while the broker connection
// is down. Callers on best-effort paths log it and move on.
var ErrUnavailable = errors.New("queue broker unavailable")

// ErrReject marks deliveries whose shape redelivery cannot repair. The
// consumer drops them without requeue.
var ErrReject = errors.New("message rejected")

// attemptsHeader carries the redelivery counter when a requeue limit is set.
const attemptsHeader = "x-attempts"

// Queue wraps the RabbitMQ connection shared by one service instance.
// Publishes go through a single channel guarded by a mutex; each consumer
// opens its own channel.
type Queue struct {
	conn         *amqp.Connection
	ch           *amqp.Channel
	mu           sync.Mutex
	requeueLimit int
	logger       *zap.Logger
}

// NewQueue dials the broker and opens the publishing channel. requeueLimit
// bounds redelivery of failed messages; zero keeps the historical behavior of
// requeueing forever.
func NewQueue(url string, requeueLimit int) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Queue{
		conn:         conn,
		ch:           ch,
		requeueLimit: requeueLimit,
		logger:       util.GetLogger(),
	}, nil
}

// Declare ensures the named durable queues exist.
func (q *Queue) Declare(names ...string) error {
	if q == nil {
		return ErrUnavailable
	}
	for _, name := range names {
		if _, err := q.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}
	return nil
}

// Publish sends payload to the named queue as a persistent JSON message.
func (q *Queue) Publish(ctx context.Context, queue string, payload interface{}) error {
	if q == nil {
		return ErrUnavailable
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Close closes the publishing channel and the connection.
func (q *Queue) Close() error {
	if q == nil {
		return nil
	}
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

// HandlerFunc processes one queue delivery. A nil return acknowledges the
// message, ErrReject drops it, any other error sends it back for redelivery.
type HandlerFunc func(ctx context.Context, body []byte) error

// republisher is the slice of amqp.Channel used to re-enqueue messages under
// a bounded requeue policy.
type republisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueConsumer consumes one queue on its own channel with manual acks.
type QueueConsumer struct {
	ch           *amqp.Channel
	pub          republisher
	queue        string
	requeueLimit int
	logger       *zap.Logger
}

// NewConsumer opens a consumer channel for the named queue. The queue is
// declared here too, so consumers start safely before any producer.
func (q *Queue) NewConsumer(queue string) (*QueueConsumer, error) {
	if q == nil {
		return nil, ErrUnavailable
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueConsumer{
		ch:           ch,
		pub:          ch,
		queue:        queue,
		requeueLimit: q.requeueLimit,
		logger:       q.logger,
	}, nil
}

// StartConsuming delivers messages to handler until ctx is cancelled or the
// delivery channel dies.
func (c *QueueConsumer) StartConsuming(ctx context.Context, handler HandlerFunc) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	c.logger.Info("Consuming queue", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrUnavailable
			}
			c.dispatch(ctx, d, handler)
		}
	}
}

// Close closes the consumer channel.
func (c *QueueConsumer) Close() error {
	return c.ch.Close()
}

// dispatch runs the handler and settles the delivery: ack on success, drop on
// rejects, requeue on any other failure.
func (c *QueueConsumer) dispatch(ctx context.Context, d amqp.Delivery, handler HandlerFunc) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		util.QueueMessagesTotal.WithLabelValues(c.queue, "ack").Inc()
		if err := d.Ack(false); err != nil {
			c.logger.Error("Failed to ack delivery", zap.String("queue", c.queue), zap.Error(err))
		}

	case errors.Is(err, ErrReject):
		util.QueueMessagesTotal.WithLabelValues(c.queue, "drop").Inc()
		c.logger.Warn("Rejecting malformed message",
			zap.String("queue", c.queue),
			zap.Error(err))
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("Failed to reject delivery", zap.String("queue", c.queue), zap.Error(err))
		}

	default:
		c.redeliver(ctx, d, err)
	}
}

// redeliver returns a failed message to the queue. Without a requeue limit
// the broker redelivers forever, with no backoff. With a limit, the message
// is republished carrying an attempt counter and dropped once the counter
// reaches the limit.
func (c *QueueConsumer) redeliver(ctx context.Context, d amqp.Delivery, cause error) {
	if c.requeueLimit <= 0 {
		util.QueueMessagesTotal.WithLabelValues(c.queue, "requeue").Inc()
		c.logger.Warn("Requeueing failed message",
			zap.String("queue", c.queue),
			zap.Error(cause))
		if err := d.Nack(false, true); err != nil {
			c.logger.Error("Failed to nack delivery", zap.String("queue", c.queue), zap.Error(err))
		}
		return
	}

	attempts := attemptCount(d.Headers) + 1
	if attempts >= c.requeueLimit {
		util.QueueMessagesTotal.WithLabelValues(c.queue, "drop").Inc()
		c.logger.Error("Dropping message after retry limit",
			zap.String("queue", c.queue),
			zap.Int("attempts", attempts),
			zap.Error(cause))
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("Failed to drop delivery", zap.String("queue", c.queue), zap.Error(err))
		}
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = int32(attempts)

	err := c.pub.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         d.Body,
	})
	if err != nil {
		// The broker still holds the original; keep it alive instead.
		c.logger.Error("Failed to republish, requeueing instead",
			zap.String("queue", c.queue),
			zap.Error(err))
		util.QueueMessagesTotal.WithLabelValues(c.queue, "requeue").Inc()
		if err := d.Nack(false, true); err != nil {
			c.logger.Error("Failed to nack delivery", zap.String("queue", c.queue), zap.Error(err))
		}
		return
	}

	util.QueueMessagesTotal.WithLabelValues(c.queue, "requeue").Inc()
	c.logger.Warn("Requeued failed message",
		zap.String("queue", c.queue),
		zap.Int("attempts", attempts),
		zap.Error(cause))
	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to ack republished delivery", zap.String("queue", c.queue), zap.Error(err))
	}
}

// attemptCount reads the redelivery counter from message headers. Brokers
// hand numeric headers back in several widths.
func attemptCount(headers amqp.Table) int {
	v, ok := headers[attemptsHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
