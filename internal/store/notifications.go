package store

import (
	"context"

	"shopflow/internal/models"
)

// CreateNotification inserts a notification record.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, n, query,
		n.UserID, n.Type, n.Title, n.Message, n.Data)
}

// RecentNotificationsByUser returns a user's newest notifications, most
// recent first, capped at limit.
func (s *Store) RecentNotificationsByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, limit)
	return items, err
}
