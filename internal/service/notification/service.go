package notification

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/internal/ws"
)

const defaultListLimit = 50

// Service handles notification persistence and live fan-out.
type Service struct {
	repo   repository.NotificationRepository
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service. A nil hub disables streaming.
func New(repo repository.NotificationRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{repo: repo, hub: hub, logger: logger}
}

// Hub exposes the stream hub for transport handlers.
func (s Service) Hub() *ws.Hub {
	return s.hub
}

// Notify stores a notification and pushes it to the user's live stream.
func (s Service) Notify(ctx context.Context, userID, kind, message string) error {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	if s.hub != nil {
		payload, err := json.Marshal(map[string]any{
			"id":         n.ID,
			"kind":       n.Kind,
			"message":    n.Message,
			"created_at": n.CreatedAt.Format(time.RFC3339Nano),
		})
		if err == nil {
			s.hub.Broadcast(userID, payload)
		}
	}
	s.logger.Info("notification created", "user_id", userID, "kind", kind)
	return nil
}

// List returns recent notifications, optionally unread only.
func (s Service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListNotificationsByUser(ctx, userID, unreadOnly, defaultListLimit)
}

// MarkRead flags a single notification, scoped to its owner.
func (s Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.repo.MarkNotificationRead(ctx, userID, notificationID)
}

// MarkAllRead flags every unread notification for the user.
func (s Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}
