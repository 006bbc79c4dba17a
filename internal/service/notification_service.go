package service

import (
	"context"
	"fmt"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/observability"
)

const previewLength = 50

// NotificationService builds and serves the notification inbox fed by
// chat activity
type NotificationService struct {
	notificationRepo domain.NotificationRepository
	eventRepo        domain.EventRepository
}

func NewNotificationService(notificationRepo domain.NotificationRepository, eventRepo domain.EventRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		eventRepo:        eventRepo,
	}
}

// FanOutChatMessage creates one notification per interested user (the
// sender excluded) for a persisted chat message
func (s *NotificationService) FanOutChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	recipients, err := s.eventRepo.InterestedUserIDs(ctx, msg.EventID, msg.User.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve fan-out recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	preview := msg.Message
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength]) + "..."
	}
	body := fmt.Sprintf("%s: %s", msg.User.FirstName, preview)

	notifications := make([]*domain.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, &domain.Notification{
			UserID:     userID,
			Type:       domain.NotificationChatMessage,
			EventID:    msg.EventID,
			FromUserID: msg.User.ID,
			Message:    body,
		})
	}

	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return err
	}

	observability.NotificationsFannedOut.Add(float64(len(notifications)))
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
