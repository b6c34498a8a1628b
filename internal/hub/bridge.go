package hub

import (
	"context"
	"encoding/json"

	"shopflow/internal/models"
	"shopflow/internal/redisclient"
	"shopflow/internal/util"

	"go.uber.org/zap"
)

// Bridge relays the fan-out channel onto the local registry. One bridge runs
// per process for its whole lifetime; it receives every published record,
// including this instance's own, and filters nothing. The same-instance
// duplicate of the direct local broadcast is tolerated by clients.
type Bridge struct {
	registry *Registry
	redis    *redisclient.Client
	channel  string
	logger   *zap.Logger
}

// NewBridge creates the fan-out bridge over the given pub/sub channel.
func NewBridge(registry *Registry, redis *redisclient.Client, channel string) *Bridge {
	return &Bridge{
		registry: registry,
		redis:    redis,
		channel:  channel,
		logger:   util.GetLogger(),
	}
}

// Run subscribes and relays messages until ctx is cancelled or the
// subscription dies.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.redis.SubscribeNotifications(ctx, b.channel)
	if pubsub == nil {
		return redisclient.ErrUnavailable
	}
	defer pubsub.Close()

	b.logger.Info("Fan-out bridge subscribed", zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return redisclient.ErrUnavailable
			}
			b.deliver([]byte(msg.Payload))
		}
	}
}

// deliver hands one fan-out payload to the local registry. Malformed
// payloads are logged and skipped.
func (b *Bridge) deliver(payload []byte) {
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		b.logger.Warn("Skipping malformed fan-out payload", zap.Error(err))
		return
	}
	if n.UserID == 0 {
		b.logger.Warn("Skipping fan-out payload without user id")
		return
	}

	delivered := b.registry.Broadcast(n.UserID, &n)
	b.logger.Debug("Fan-out delivered",
		zap.Int64("user_id", n.UserID),
		zap.Int("sockets", delivered))
}
