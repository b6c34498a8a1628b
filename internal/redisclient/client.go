package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopflow/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrUnavailable marks cache operations attempted while Redis is down or the
// client was never connected.
var ErrUnavailable = errors.New("redis unavailable")

// historyTTL bounds staleness of the cached notification history.
const historyTTL = 30 * time.Second

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// PublishNotification broadcasts the full notification record on the fan-out
// channel. Every subscribed instance receives every record and filters by
// user against its local socket registry.
func (c *Client) PublishNotification(ctx context.Context, channel string, n *models.Notification) error {
	if c == nil {
		return ErrUnavailable
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// SubscribeNotifications opens the process-wide fan-out subscription.
func (c *Client) SubscribeNotifications(ctx context.Context, channel string) *redis.PubSub {
	if c == nil {
		return nil
	}
	return c.rdb.Subscribe(ctx, channel)
}

func historyKey(userID int64) string {
	return fmt.Sprintf("notifications:recent:%d", userID)
}

// GetRecentNotifications returns the cached history for a user. ok is false
// on a cache miss.
func (c *Client) GetRecentNotifications(ctx context.Context, userID int64) ([]models.Notification, bool, error) {
	if c == nil {
		return nil, false, ErrUnavailable
	}

	raw, err := c.rdb.Get(ctx, historyKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []models.Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached history: %w", err)
	}
	return items, true, nil
}

// SetRecentNotifications caches a user's history for a short window.
func (c *Client) SetRecentNotifications(ctx context.Context, userID int64, items []models.Notification) error {
	if c == nil {
		return ErrUnavailable
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return c.rdb.Set(ctx, historyKey(userID), payload, historyTTL).Err()
}

// InvalidateRecentNotifications drops a user's cached history after a write.
func (c *Client) InvalidateRecentNotifications(ctx context.Context, userID int64) error {
	if c == nil {
		return ErrUnavailable
	}
	return c.rdb.Del(ctx, historyKey(userID)).Err()
}
