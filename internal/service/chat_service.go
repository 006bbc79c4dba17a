package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kcdaviscode/huddll/internal/domain"
)

const maxMessageLength = 1000

// MessagePublisher emits a message-created event after a chat message is
// durably stored. Delivery is best-effort; a publish failure never fails
// the send.
type MessagePublisher interface {
	PublishMessageCreated(ctx context.Context, msg *domain.ChatMessage) error
}

// ChatService implements the chat core's business rules: the room
// authorization gate, the message store operations, and the
// read-tracking ledger.
type ChatService struct {
	messageRepo    domain.MessageRepository
	eventRepo      domain.EventRepository
	readStatusRepo domain.ReadStatusRepository
	publisher      MessagePublisher
}

func NewChatService(messageRepo domain.MessageRepository, eventRepo domain.EventRepository,
	readStatusRepo domain.ReadStatusRepository, publisher MessagePublisher) *ChatService {
	return &ChatService{
		messageRepo:    messageRepo,
		eventRepo:      eventRepo,
		readStatusRepo: readStatusRepo,
		publisher:      publisher,
	}
}

// Authorize decides whether an identity may join an event's chat room.
// Deny conditions, checked in order: anonymous identity, nonexistent
// event, no interest record. Returns nil on allow.
func (s *ChatService) Authorize(ctx context.Context, identity domain.Identity, eventID string) error {
	if identity.IsAnonymous() {
		return domain.ErrInvalidCredentials
	}

	exists, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrEventNotFound
	}

	interested, err := s.eventRepo.IsInterested(ctx, eventID, identity.ID)
	if err != nil {
		return err
	}
	if !interested {
		return domain.ErrNotInterested
	}

	return nil
}

// Append persists one chat message and emits the message-created event.
// The text must already be non-empty after trimming; callers discard
// whitespace-only sends before reaching the store.
func (s *ChatService) Append(ctx context.Context, eventID string, author domain.Identity, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxMessageLength {
		return nil, domain.ErrInvalidInput
	}
	if author.IsAnonymous() {
		return nil, domain.ErrInvalidCredentials
	}

	msg := &domain.ChatMessage{
		EventID: eventID,
		Message: text,
		User: domain.MessageAuthor{
			ID:        author.ID,
			Username:  author.Username,
			FirstName: author.FirstName,
			LastName:  author.LastName,
		},
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMessageCreated(ctx, msg); err != nil {
			// Fan-out is best-effort; the message is already durable.
			slog.Error("failed to publish message created event",
				slog.String("error", err.Error()),
				slog.String("message_id", msg.ID))
		}
	}

	return msg, nil
}

// Recent returns up to limit recent messages, oldest first
func (s *ChatService) Recent(ctx context.Context, eventID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.Recent(ctx, eventID, limit)
}

// MarkRead sets the user's last-read high-water mark for an event to now
func (s *ChatService) MarkRead(ctx context.Context, userID, eventID string) error {
	exists, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrEventNotFound
	}
	return s.readStatusRepo.MarkRead(ctx, userID, eventID)
}

// UnreadCounts returns per-event unread message counts for the user
func (s *ChatService) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	return s.readStatusRepo.UnreadCounts(ctx, userID)
}
