package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotInterested = errors.New("user has no interest record for this event")
)

// Event is the narrow view of an event the chat core depends on.
// Full event management (venues, geofenced check-in, discovery) lives
// outside this service.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by"`
	StartTime time.Time `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository defines the event/interest lookups the chat core needs
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	// IsInterested reports whether the user has an active RSVP record
	IsInterested(ctx context.Context, eventID, userID string) (bool, error)
	AddInterest(ctx context.Context, eventID, userID string) error
	RemoveInterest(ctx context.Context, eventID, userID string) error
	// InterestedUserIDs returns the users with an interest record,
	// excluding the given user
	InterestedUserIDs(ctx context.Context, eventID, excludeUserID string) ([]string, error)
}
