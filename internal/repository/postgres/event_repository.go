package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// EventRepository implements domain.EventRepository for PostgreSQL.
// Event rows are owned by the event management service; this repository
// only reads them and maintains interest records.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, created_by, start_time, created_at
		FROM events
		WHERE id = $1
	`
	event := &domain.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.CreatedBy,
		&event.StartTime,
		&event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Exists reports whether an event exists
func (r *EventRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// IsInterested reports whether the user has an active interest record
func (r *EventRepository) IsInterested(ctx context.Context, eventID, userID string) (bool, error) {
	var interested bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_interests WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&interested)
	if err != nil {
		return false, fmt.Errorf("failed to check interest: %w", err)
	}
	return interested, nil
}

// AddInterest records the user's interest in an event. Idempotent.
func (r *EventRepository) AddInterest(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_interests (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("failed to add interest: %w", err)
	}
	return nil
}

// RemoveInterest deletes the user's interest record for an event
func (r *EventRepository) RemoveInterest(ctx context.Context, eventID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_interests WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove interest: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if count == 0 {
		return domain.ErrNotInterested
	}
	return nil
}

// InterestedUserIDs returns users with an interest record for the event,
// excluding the given user
func (r *EventRepository) InterestedUserIDs(ctx context.Context, eventID, excludeUserID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id
		FROM event_interests
		WHERE event_id = $1 AND user_id <> $2
	`, eventID, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interested users: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interested users: %w", err)
	}
	return ids, nil
}
