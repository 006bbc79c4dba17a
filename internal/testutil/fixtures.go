package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewTestUser creates a test user with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:           nextID("user"),
		Username:     fmt.Sprintf("testuser%d", idCounter.Load()),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$10$test.hash.for.testing.purposes.only", // bcrypt hash placeholder
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = o.Username + "@example.com"
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.User{
		ID:           o.ID,
		Username:     o.Username,
		Email:        o.Email,
		FirstName:    o.FirstName,
		LastName:     o.LastName,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
	}
}

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithUsername sets the username
func WithUsername(username string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Username = username
	}
}

// WithFirstName sets the first name
func WithFirstName(name string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.FirstName = name
	}
}

// EventOptions allows customizing event fixture creation
type EventOptions struct {
	ID        string
	Title     string
	CreatedBy string
	StartTime time.Time
	CreatedAt time.Time
}

// NewTestEvent creates a test event with sensible defaults
func NewTestEvent(opts ...func(*EventOptions)) *domain.Event {
	o := &EventOptions{
		ID:        nextID("event"),
		Title:     fmt.Sprintf("Test Event %d", idCounter.Load()),
		CreatedBy: "user-host",
		StartTime: time.Now().Add(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.Event{
		ID:        o.ID,
		Title:     o.Title,
		CreatedBy: o.CreatedBy,
		StartTime: o.StartTime,
		CreatedAt: o.CreatedAt,
	}
}

// WithEventID sets the event ID
func WithEventID(id string) func(*EventOptions) {
	return func(o *EventOptions) {
		o.ID = id
	}
}

// WithCreatedBy sets the event host
func WithCreatedBy(userID string) func(*EventOptions) {
	return func(o *EventOptions) {
		o.CreatedBy = userID
	}
}

// NewTestMessage creates a persisted-looking chat message from a user
func NewTestMessage(eventID string, user *domain.User, text string) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        nextID("msg"),
		EventID:   eventID,
		Message:   text,
		CreatedAt: time.Now(),
		User: domain.MessageAuthor{
			ID:        user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	}
}

// NewTestIdentity creates an authenticated identity for ws tests
func NewTestIdentity(opts ...func(*UserOptions)) domain.Identity {
	return domain.IdentityOf(NewTestUser(opts...))
}

// NewTestSession creates an unexpired session for the user
func NewTestSession(userID string) *domain.Session {
	return &domain.Session{
		ID:        nextID("session"),
		UserID:    userID,
		Token:     nextID("token"),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
}
