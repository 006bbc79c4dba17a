package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/service"
)

const fanOutTimeout = 10 * time.Second

// NotificationConsumer turns message-created events into notification
// rows for every interested user except the sender
type NotificationConsumer struct {
	rmq           *RabbitMQ
	notifications *service.NotificationService
}

func NewNotificationConsumer(rmq *RabbitMQ, notifications *service.NotificationService) *NotificationConsumer {
	return &NotificationConsumer{
		rmq:           rmq,
		notifications: notifications,
	}
}

func (c *NotificationConsumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.ConsumeMessageCreated()
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping notification consumer")
				return
			case delivery, ok := <-msgs:
				if !ok {
					slog.Warn("notification consumer channel closed")
					return
				}
				c.process(ctx, delivery.Body)
				if err := delivery.Ack(false); err != nil {
					slog.Error("failed to ack delivery", slog.String("error", err.Error()))
				}
			}
		}
	}()

	return nil
}

func (c *NotificationConsumer) process(ctx context.Context, body []byte) {
	var event MessageCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Error("error unmarshaling message created event",
			slog.String("error", err.Error()),
			slog.String("body", string(body)))
		return
	}

	msg := &domain.ChatMessage{
		ID:        event.MessageID,
		EventID:   event.EventID,
		Message:   event.Message,
		CreatedAt: event.CreatedAt,
		User: domain.MessageAuthor{
			ID:        event.UserID,
			Username:  event.Username,
			FirstName: event.FirstName,
			LastName:  event.LastName,
		},
	}

	fanCtx, cancel := context.WithTimeout(ctx, fanOutTimeout)
	defer cancel()

	if err := c.notifications.FanOutChatMessage(fanCtx, msg); err != nil {
		slog.Error("notification fan-out failed",
			slog.String("error", err.Error()),
			slog.String("message_id", event.MessageID),
			slog.String("event_id", event.EventID))
		return
	}

	slog.Debug("notification fan-out completed",
		slog.String("message_id", event.MessageID),
		slog.String("event_id", event.EventID))
}
