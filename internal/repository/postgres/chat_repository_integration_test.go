//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/repository/postgres"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container, applies the schema, and
// returns a live connection.
func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	time.Sleep(2 * time.Second)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err, "failed to connect to PostgreSQL")

	schema, err := os.ReadFile("../../../migrations/schema.sql")
	require.NoError(t, err, "failed to read schema file")

	_, err = db.Exec(string(schema))
	require.NoError(t, err, "failed to apply schema")

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func createUser(t *testing.T, repo *postgres.UserRepository, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "test_hash",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func createEvent(t *testing.T, db *sql.DB, createdBy string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO events (title, created_by, start_time) VALUES ($1, $2, $3) RETURNING id`,
		"Test Event", createdBy, time.Now().Add(24*time.Hour),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestUserRepository_Integration(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	repo := postgres.NewUserRepository(db)

	t.Run("Create_and_lookups", func(t *testing.T) {
		user := createUser(t, repo, "alice")
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byID, err := repo.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, "Test", byID.FirstName)

		byUsername, err := repo.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byUsername.ID)

		byEmail, err := repo.GetByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("Create_DuplicateUsername", func(t *testing.T) {
		createUser(t, repo, "duplicate")
		err := repo.Create(context.Background(), &domain.User{
			Username:     "duplicate",
			Email:        "other@example.com",
			PasswordHash: "hash",
		})
		assert.ErrorIs(t, err, domain.ErrUsernameExists)
	})

	t.Run("Create_DuplicateEmail", func(t *testing.T) {
		createUser(t, repo, "emailowner")
		err := repo.Create(context.Background(), &domain.User{
			Username:     "someoneelse",
			Email:        "emailowner@example.com",
			PasswordHash: "hash",
		})
		assert.ErrorIs(t, err, domain.ErrEmailExists)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestSessionRepository_Integration(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	userRepo := postgres.NewUserRepository(db)
	repo, err := postgres.NewSessionRepository(db)
	require.NoError(t, err)
	defer repo.Close()

	user := createUser(t, userRepo, "sessionuser")

	t.Run("create_and_get_by_token", func(t *testing.T) {
		session := &domain.Session{
			UserID:    user.ID,
			Token:     "integration-token",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), session))
		assert.NotEmpty(t, session.ID)

		got, err := repo.GetByToken(context.Background(), "integration-token")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)
	})

	t.Run("expired_token_not_returned", func(t *testing.T) {
		session := &domain.Session{
			UserID:    user.ID,
			Token:     "expired-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), session))

		_, err := repo.GetByToken(context.Background(), "expired-token")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		session := &domain.Session{
			UserID:    user.ID,
			Token:     "delete-me",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), session))
		require.NoError(t, repo.Delete(context.Background(), "delete-me"))

		_, err := repo.GetByToken(context.Background(), "delete-me")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("delete_expired", func(t *testing.T) {
		count, err := repo.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestEventInterest_Integration(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	owner := createUser(t, userRepo, "owner")
	guest := createUser(t, userRepo, "guest")
	eventID := createEvent(t, db, owner.ID)

	t.Run("interest_lifecycle", func(t *testing.T) {
		interested, err := eventRepo.IsInterested(context.Background(), eventID, guest.ID)
		require.NoError(t, err)
		assert.False(t, interested)

		require.NoError(t, eventRepo.AddInterest(context.Background(), eventID, guest.ID))

		interested, err = eventRepo.IsInterested(context.Background(), eventID, guest.ID)
		require.NoError(t, err)
		assert.True(t, interested)

		// Adding again is a no-op
		require.NoError(t, eventRepo.AddInterest(context.Background(), eventID, guest.ID))

		require.NoError(t, eventRepo.RemoveInterest(context.Background(), eventID, guest.ID))
		err = eventRepo.RemoveInterest(context.Background(), eventID, guest.ID)
		assert.ErrorIs(t, err, domain.ErrNotInterested)
	})

	t.Run("interested_user_ids_excludes_given_user", func(t *testing.T) {
		require.NoError(t, eventRepo.AddInterest(context.Background(), eventID, owner.ID))
		require.NoError(t, eventRepo.AddInterest(context.Background(), eventID, guest.ID))

		ids, err := eventRepo.InterestedUserIDs(context.Background(), eventID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{guest.ID}, ids)
	})

	t.Run("add_interest_missing_event", func(t *testing.T) {
		err := eventRepo.AddInterest(context.Background(),
			"00000000-0000-0000-0000-000000000000", guest.ID)
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})
}

func TestMessageAndReadStatus_Integration(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	userRepo := postgres.NewUserRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	readStatusRepo := postgres.NewReadStatusRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	author := createUser(t, userRepo, "author")
	reader := createUser(t, userRepo, "reader")
	eventID := createEvent(t, db, author.ID)
	require.NoError(t, eventRepo.AddInterest(context.Background(), eventID, reader.ID))

	sendMessage := func(text string) *domain.ChatMessage {
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
		require.NoError(t, messageRepo.Create(context.Background(), msg))
		return msg
	}

	t.Run("create_sets_id_and_timestamp", func(t *testing.T) {
		msg := sendMessage("first message")
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
	})

	t.Run("recent_returns_ascending_order", func(t *testing.T) {
		sendMessage("second message")
		sendMessage("third message")

		messages, err := messageRepo.Recent(context.Background(), eventID, 50)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "first message", messages[0].Message)
		assert.Equal(t, "third message", messages[2].Message)
		assert.Equal(t, author.Username, messages[0].User.Username)
	})

	t.Run("recent_honors_limit", func(t *testing.T) {
		messages, err := messageRepo.Recent(context.Background(), eventID, 2)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		// The limit keeps the newest messages
		assert.Equal(t, "second message", messages[0].Message)
		assert.Equal(t, "third message", messages[1].Message)
	})

	t.Run("unread_counts_follow_mark_read", func(t *testing.T) {
		counts, err := readStatusRepo.UnreadCounts(context.Background(), reader.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, counts[eventID])

		require.NoError(t, readStatusRepo.MarkRead(context.Background(), reader.ID, eventID))

		counts, err = readStatusRepo.UnreadCounts(context.Background(), reader.ID)
		require.NoError(t, err)
		assert.Zero(t, counts[eventID])

		sendMessage("after mark read")

		counts, err = readStatusRepo.UnreadCounts(context.Background(), reader.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[eventID])
	})

	t.Run("own_messages_excluded_from_unread", func(t *testing.T) {
		// One unread from the author is carried over from the previous
		// subtest. Add one more from the author and one from the reader;
		// only the author's two count toward the reader's unread total.
		require.NoError(t, messageRepo.Create(context.Background(), &domain.ChatMessage{
			EventID: eventID,
			Message: "from the reader",
			User: domain.MessageAuthor{
				ID:       reader.ID,
				Username: reader.Username,
			},
		}))
		sendMessage("another from author")

		counts, err := readStatusRepo.UnreadCounts(context.Background(), reader.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[eventID])
	})

	t.Run("create_missing_event", func(t *testing.T) {
		err := messageRepo.Create(context.Background(), &domain.ChatMessage{
			EventID: "00000000-0000-0000-0000-000000000000",
			Message: "orphan",
			User:    domain.MessageAuthor{ID: author.ID},
		})
		assert.Error(t, err)
	})
}

func TestNotificationRepository_Integration(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	userRepo := postgres.NewUserRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	sender := createUser(t, userRepo, "sender")
	recipient := createUser(t, userRepo, "recipient")
	eventID := createEvent(t, db, sender.ID)

	batch := []*domain.Notification{
		{
			UserID:     recipient.ID,
			Type:       domain.NotificationChatMessage,
			EventID:    eventID,
			FromUserID: sender.ID,
			Message:    "Test: hello",
		},
		{
			UserID:     recipient.ID,
			Type:       domain.NotificationChatMessage,
			EventID:    eventID,
			FromUserID: sender.ID,
			Message:    "Test: hello again",
		},
	}
	require.NoError(t, notificationRepo.CreateBatch(context.Background(), batch))
	for _, n := range batch {
		assert.NotEmpty(t, n.ID)
	}

	t.Run("list_and_unread_count", func(t *testing.T) {
		notifications, err := notificationRepo.ListByUser(context.Background(), recipient.ID, 50)
		require.NoError(t, err)
		assert.Len(t, notifications, 2)

		unread, err := notificationRepo.CountUnread(context.Background(), recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, unread)
	})

	t.Run("mark_read_scoped_to_owner", func(t *testing.T) {
		err := notificationRepo.MarkRead(context.Background(), batch[0].ID, sender.ID)
		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)

		require.NoError(t, notificationRepo.MarkRead(context.Background(), batch[0].ID, recipient.ID))

		unread, err := notificationRepo.CountUnread(context.Background(), recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, unread)
	})

	t.Run("mark_all_read", func(t *testing.T) {
		count, err := notificationRepo.MarkAllRead(context.Background(), recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		unread, err := notificationRepo.CountUnread(context.Background(), recipient.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})
}
