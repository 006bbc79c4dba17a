package domain

import (
	"context"
	"time"
)

// MessageAuthor is the author shape embedded in a serialized chat message
type MessageAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ChatMessage represents one persisted chat utterance. Messages are
// immutable once created; there is no edit or delete path.
type ChatMessage struct {
	ID        string        `json:"id"`
	EventID   string        `json:"-"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	User      MessageAuthor `json:"user"`
}

// MessageRepository defines the interface for the durable message log
type MessageRepository interface {
	// Create appends a message, assigning its id and creation timestamp.
	// EventID, Message, and User.ID must be set by the caller.
	Create(ctx context.Context, message *ChatMessage) error
	// Recent returns up to limit most recent messages for an event,
	// in ascending chronological order
	Recent(ctx context.Context, eventID string, limit int) ([]*ChatMessage, error)
}

// ChatReadStatus is a user's last-read high-water mark for an event's chat
type ChatReadStatus struct {
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	LastReadAt time.Time `json:"last_read_at"`
}

// ReadStatusRepository defines the interface for the read-tracking ledger
type ReadStatusRepository interface {
	// MarkRead upserts the (user, event) record with the current server
	// time. Idempotent; the timestamp only moves forward.
	MarkRead(ctx context.Context, userID, eventID string) error
	Get(ctx context.Context, userID, eventID string) (*ChatReadStatus, error)
	// UnreadCounts returns, for every event the user created or is
	// interested in, the number of messages newer than the user's
	// last-read timestamp (all messages if never read), excluding the
	// user's own messages. Events with zero unread are omitted.
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
}
