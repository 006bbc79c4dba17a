package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// ReadStatusRepository implements domain.ReadStatusRepository for PostgreSQL
type ReadStatusRepository struct {
	db *sql.DB
}

// NewReadStatusRepository creates a new PostgreSQL read status repository
func NewReadStatusRepository(db *sql.DB) *ReadStatusRepository {
	return &ReadStatusRepository{db: db}
}

// MarkRead upserts the (user, event) high-water mark to the current
// server time. GREATEST keeps the timestamp from moving backwards if two
// calls race.
func (r *ReadStatusRepository) MarkRead(ctx context.Context, userID, eventID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_read_status (user_id, event_id, last_read_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, event_id)
		DO UPDATE SET last_read_at = GREATEST(chat_read_status.last_read_at, NOW())
	`, userID, eventID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("failed to mark chat read: %w", err)
	}
	return nil
}

// Get retrieves the read status for a (user, event) pair
func (r *ReadStatusRepository) Get(ctx context.Context, userID, eventID string) (*domain.ChatReadStatus, error) {
	status := &domain.ChatReadStatus{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, event_id, last_read_at
		FROM chat_read_status
		WHERE user_id = $1 AND event_id = $2
	`, userID, eventID).Scan(&status.UserID, &status.EventID, &status.LastReadAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get read status: %w", err)
	}
	return status, nil
}

// UnreadCounts computes, in one query, the unread message count for every
// event the user created or is interested in: messages newer than the
// user's last-read timestamp (all of them if never read), never counting
// the user's own messages. Events with nothing unread are omitted.
func (r *ReadStatusRepository) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT e.id, COUNT(m.id)
		FROM events e
		LEFT JOIN chat_read_status r
			ON r.event_id = e.id AND r.user_id = $1
		JOIN chat_messages m
			ON m.event_id = e.id
			AND m.user_id <> $1
			AND (r.last_read_at IS NULL OR m.created_at > r.last_read_at)
		WHERE e.created_by = $1
			OR EXISTS (
				SELECT 1 FROM event_interests i
				WHERE i.event_id = e.id AND i.user_id = $1
			)
		GROUP BY e.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventID string
		var count int
		if err := rows.Scan(&eventID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		if count > 0 {
			counts[eventID] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unread counts: %w", err)
	}
	return counts, nil
}
