package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/observability"
)

// MessageRepository implements domain.MessageRepository for PostgreSQL
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to the event's log. The database assigns the
// identifier and creation timestamp; insertion order is the room order.
func (r *MessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	start := time.Now()
	query := `
		INSERT INTO chat_messages (event_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		message.EventID,
		message.User.ID,
		message.Message,
	).Scan(&message.ID, &message.CreatedAt)
	observability.DBQueryDuration.WithLabelValues("insert", "chat_messages").Observe(time.Since(start).Seconds())

	if err != nil {
		if IsForeignKeyViolation(err) {
			// Authorization pre-validates event and user; reaching this
			// indicates a data error, not a user error.
			return fmt.Errorf("message references missing event or user: %w", err)
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	observability.MessagesPersisted.Inc()
	return nil
}

// Recent retrieves up to limit most recent messages for an event with
// their author details, in ascending chronological order
func (r *MessageRepository) Recent(ctx context.Context, eventID string, limit int) ([]*domain.ChatMessage, error) {
	start := time.Now()
	query := `
		SELECT m.id, m.event_id, m.message, m.created_at,
		       u.id, u.username, u.first_name, u.last_name
		FROM chat_messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.event_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, limit)
	observability.DBQueryDuration.WithLabelValues("select", "chat_messages").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.ChatMessage, 0, limit)
	for rows.Next() {
		msg := &domain.ChatMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.Message,
			&msg.CreatedAt,
			&msg.User.ID,
			&msg.User.Username,
			&msg.User.FirstName,
			&msg.User.LastName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	// Reverse the slice to get oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
