package service

import (
	"context"
	"encoding/json"
	"fmt"

	"shopflow/internal/models"
	"shopflow/internal/util"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// NotificationService persists notifications and fans them out twice: once on
// the cross-instance pub/sub channel and once directly to sockets registered
// on this instance, so same-instance delivery survives a cache outage.
type NotificationService struct {
	store        NotificationStore
	fanout       Fanout
	cache        HistoryCache
	local        Broadcaster
	stream       EventStream
	channel      string
	historyLimit int
	logger       *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	store NotificationStore,
	fanout Fanout,
	cache HistoryCache,
	local Broadcaster,
	stream EventStream,
	channel string,
	historyLimit int,
) *NotificationService {
	return &NotificationService{
		store:        store,
		fanout:       fanout,
		cache:        cache,
		local:        local,
		stream:       stream,
		channel:      channel,
		historyLimit: historyLimit,
		logger:       util.GetLogger(),
	}
}

// CreateNotification persists the record, then runs the independent delivery
// steps: pub/sub fan-out, direct local broadcast, history cache invalidation
// and the mirrored stream event. Each step's failure is logged and never
// fails the call; the record is already durable.
func (s *NotificationService) CreateNotification(ctx context.Context, userID int64, typ, title, message string, data json.RawMessage) (*models.Notification, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.CreateNotification")
	defer span.End()

	if userID == 0 || typ == "" || title == "" {
		util.NotificationsFailedTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("%w: notification needs userId, type and title", models.ErrValidation)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	n := &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    types.JSONText(data),
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	util.NotificationsCreatedTotal.Inc()
	s.logger.Info("Notification created",
		zap.Int64("notification_id", n.ID),
		zap.Int64("user_id", n.UserID),
		zap.String("type", n.Type))

	if err := s.fanout.PublishNotification(ctx, s.channel, n); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("fanout_error").Inc()
		s.logger.Error("Fan-out publish failed",
			zap.Int64("notification_id", n.ID),
			zap.Error(err))
	}

	if s.local != nil {
		delivered := s.local.Broadcast(n.UserID, n)
		s.logger.Debug("Local broadcast",
			zap.Int64("user_id", n.UserID),
			zap.Int("sockets", delivered))
	}

	if err := s.cache.InvalidateRecentNotifications(ctx, n.UserID); err != nil {
		s.logger.Debug("History cache invalidation failed", zap.Error(err))
	}

	s.stream.PublishNotificationCreated(ctx, &models.NotificationCreatedEvent{
		BaseEvent:      models.NewBaseEvent(models.EventTypeNotificationCreated),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
	})

	return n, nil
}

// CreateFromRequest persists a notification described by a queue or API
// request message.
func (s *NotificationService) CreateFromRequest(ctx context.Context, msg *models.NotificationRequestMessage) (*models.Notification, error) {
	return s.CreateNotification(ctx, msg.UserID, msg.Type, msg.Title, msg.Message, msg.Data)
}

// RecentNotifications returns the user's newest notifications, most recent
// first, bounded by the configured history limit. Reads go through the cache;
// cache failures fall back to the store.
func (s *NotificationService) RecentNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.RecentNotifications")
	defer span.End()

	items, ok, err := s.cache.GetRecentNotifications(ctx, userID)
	if err != nil {
		s.logger.Debug("History cache read failed", zap.Error(err))
	}
	if ok {
		return items, nil
	}

	items, err = s.store.RecentNotificationsByUser(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	if err := s.cache.SetRecentNotifications(ctx, userID, items); err != nil {
		s.logger.Debug("History cache write failed", zap.Error(err))
	}

	return items, nil
}
