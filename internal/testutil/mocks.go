// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the huddll chat service.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)

	// In-memory storage for simple tests
	Users map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Username == user.Username {
			return domain.ErrUsernameExists
		}
		if u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	CreateFunc        func(ctx context.Context, session *domain.Session) error
	GetByTokenFunc    func(ctx context.Context, token string) (*domain.Session, error)
	DeleteFunc        func(ctx context.Context, token string) error
	DeleteExpiredFunc func(ctx context.Context) (int64, error)

	Sessions map[string]*domain.Session
}

// NewMockSessionRepository creates a new MockSessionRepository with initialized maps
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == "" {
		session.ID = "session-" + session.Token
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.Sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.Sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for token, session := range m.Sessions {
		if now.After(session.ExpiresAt) {
			delete(m.Sessions, token)
			count++
		}
	}
	return count, nil
}

// MockEventRepository implements domain.EventRepository for testing
type MockEventRepository struct {
	mu sync.RWMutex

	GetByIDFunc           func(ctx context.Context, id string) (*domain.Event, error)
	ExistsFunc            func(ctx context.Context, id string) (bool, error)
	IsInterestedFunc      func(ctx context.Context, eventID, userID string) (bool, error)
	AddInterestFunc       func(ctx context.Context, eventID, userID string) error
	RemoveInterestFunc    func(ctx context.Context, eventID, userID string) error
	InterestedUserIDsFunc func(ctx context.Context, eventID, excludeUserID string) ([]string, error)

	Events    map[string]*domain.Event
	Interests map[string]map[string]bool // eventID -> userID -> interested
}

// NewMockEventRepository creates a new MockEventRepository with initialized maps
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{
		Events:    make(map[string]*domain.Event),
		Interests: make(map[string]map[string]bool),
	}
}

// AddEvent seeds an event with optional interested users
func (m *MockEventRepository) AddEvent(event *domain.Event, interestedUserIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events[event.ID] = event
	if m.Interests[event.ID] == nil {
		m.Interests[event.ID] = make(map[string]bool)
	}
	for _, id := range interestedUserIDs {
		m.Interests[event.ID][id] = true
	}
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if event, ok := m.Events[id]; ok {
		return event, nil
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Events[id]
	return ok, nil
}

func (m *MockEventRepository) IsInterested(ctx context.Context, eventID, userID string) (bool, error) {
	if m.IsInterestedFunc != nil {
		return m.IsInterestedFunc(ctx, eventID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Interests[eventID][userID], nil
}

func (m *MockEventRepository) AddInterest(ctx context.Context, eventID, userID string) error {
	if m.AddInterestFunc != nil {
		return m.AddInterestFunc(ctx, eventID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Events[eventID]; !ok {
		return domain.ErrEventNotFound
	}
	if m.Interests[eventID] == nil {
		m.Interests[eventID] = make(map[string]bool)
	}
	m.Interests[eventID][userID] = true
	return nil
}

func (m *MockEventRepository) RemoveInterest(ctx context.Context, eventID, userID string) error {
	if m.RemoveInterestFunc != nil {
		return m.RemoveInterestFunc(ctx, eventID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Interests[eventID][userID] {
		return domain.ErrNotInterested
	}
	delete(m.Interests[eventID], userID)
	return nil
}

func (m *MockEventRepository) InterestedUserIDs(ctx context.Context, eventID, excludeUserID string) ([]string, error) {
	if m.InterestedUserIDsFunc != nil {
		return m.InterestedUserIDsFunc(ctx, eventID, excludeUserID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for id, interested := range m.Interests[eventID] {
		if interested && id != excludeUserID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// MockMessageRepository implements domain.MessageRepository for testing
type MockMessageRepository struct {
	mu sync.RWMutex

	CreateFunc func(ctx context.Context, message *domain.ChatMessage) error
	RecentFunc func(ctx context.Context, eventID string, limit int) ([]*domain.ChatMessage, error)

	Messages []*domain.ChatMessage
	nextID   int
}

// NewMockMessageRepository creates a new MockMessageRepository
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		Messages: make([]*domain.ChatMessage, 0),
	}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", m.nextID)
	}
	if message.CreatedAt.IsZero() {
		// Strictly increasing timestamps mirror insertion order
		message.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Microsecond)
	}
	stored := *message
	m.Messages = append(m.Messages, &stored)
	return nil
}

func (m *MockMessageRepository) Recent(ctx context.Context, eventID string, limit int) ([]*domain.ChatMessage, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, eventID, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := make([]*domain.ChatMessage, 0)
	for _, msg := range m.Messages {
		if msg.EventID == eventID {
			filtered = append(filtered, msg)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

// MockReadStatusRepository implements domain.ReadStatusRepository for testing
type MockReadStatusRepository struct {
	mu sync.RWMutex

	MarkReadFunc     func(ctx context.Context, userID, eventID string) error
	GetFunc          func(ctx context.Context, userID, eventID string) (*domain.ChatReadStatus, error)
	UnreadCountsFunc func(ctx context.Context, userID string) (map[string]int, error)

	Statuses map[string]*domain.ChatReadStatus // key: userID + "/" + eventID
}

// NewMockReadStatusRepository creates a new MockReadStatusRepository
func NewMockReadStatusRepository() *MockReadStatusRepository {
	return &MockReadStatusRepository{
		Statuses: make(map[string]*domain.ChatReadStatus),
	}
}

func (m *MockReadStatusRepository) MarkRead(ctx context.Context, userID, eventID string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID + "/" + eventID
	now := time.Now()
	if existing, ok := m.Statuses[key]; ok && existing.LastReadAt.After(now) {
		return nil
	}
	m.Statuses[key] = &domain.ChatReadStatus{
		UserID:     userID,
		EventID:    eventID,
		LastReadAt: now,
	}
	return nil
}

func (m *MockReadStatusRepository) Get(ctx context.Context, userID, eventID string) (*domain.ChatReadStatus, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, eventID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Statuses[userID+"/"+eventID], nil
}

func (m *MockReadStatusRepository) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	if m.UnreadCountsFunc != nil {
		return m.UnreadCountsFunc(ctx, userID)
	}
	return map[string]int{}, nil
}

// MockNotificationRepository implements domain.NotificationRepository for testing
type MockNotificationRepository struct {
	mu sync.RWMutex

	CreateBatchFunc func(ctx context.Context, notifications []*domain.Notification) error

	Notifications []*domain.Notification
	nextID        int
}

// NewMockNotificationRepository creates a new MockNotificationRepository
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		Notifications: make([]*domain.Notification, 0),
	}
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, notifications)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range notifications {
		m.nextID++
		if n.ID == "" {
			n.ID = fmt.Sprintf("notification-%d", m.nextID)
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		m.Notifications = append(m.Notifications, n)
	}
	return nil
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Notification, 0)
	for i := len(m.Notifications) - 1; i >= 0 && len(result) < limit; i-- {
		if m.Notifications[i].UserID == userID {
			result = append(result, m.Notifications[i])
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.Notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// MockPublisher records message-created events for assertions
type MockPublisher struct {
	mu sync.Mutex

	PublishFunc func(ctx context.Context, msg *domain.ChatMessage) error

	Published []*domain.ChatMessage
}

func (m *MockPublisher) PublishMessageCreated(ctx context.Context, msg *domain.ChatMessage) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, msg)
	return nil
}
