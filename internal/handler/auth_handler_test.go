package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/middleware"
	"github.com/kcdaviscode/huddll/internal/service"
	"github.com/kcdaviscode/huddll/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func newAuthHandler() (*AuthHandler, *testutil.MockUserRepository, *testutil.MockSessionRepository) {
	userRepo := testutil.NewMockUserRepository()
	sessionRepo := testutil.NewMockSessionRepository()
	return NewAuthHandler(service.NewAuthService(userRepo, sessionRepo)), userRepo, sessionRepo
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		h, _, _ := newAuthHandler()

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username":   "alice",
			"email":      "alice@example.com",
			"password":   "password123",
			"first_name": "Alice",
			"last_name":  "Smith",
		})
		w := httptest.NewRecorder()

		h.Register(w, req)

		body := testutil.AssertJSONResponse(t, w, http.StatusCreated)
		testutil.AssertEqual(t, body["username"].(string), "alice")
		testutil.AssertEqual(t, body["first_name"].(string), "Alice")
		if _, hasHash := body["password_hash"]; hasHash {
			t.Error("Response must not leak the password hash")
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		h, _, _ := newAuthHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
		w := httptest.NewRecorder()

		h.Register(w, req)
		testutil.AssertStatusCode(t, w, http.StatusBadRequest)
	})

	t.Run("invalid input", func(t *testing.T) {
		h, _, _ := newAuthHandler()

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": "ab",
			"email":    "a@example.com",
			"password": "password123",
		})
		w := httptest.NewRecorder()

		h.Register(w, req)
		testutil.AssertStatusCode(t, w, http.StatusBadRequest)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		h, userRepo, _ := newAuthHandler()
		userRepo.Users["user-1"] = &domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "new@example.com",
			"password": "password123",
		})
		w := httptest.NewRecorder()

		h.Register(w, req)
		testutil.AssertStatusCode(t, w, http.StatusConflict)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	t.Run("issues a bearer token", func(t *testing.T) {
		h, userRepo, _ := newAuthHandler()
		userRepo.Users["user-1"] = &domain.User{
			ID:           "user-1",
			Username:     "alice",
			FirstName:    "Alice",
			PasswordHash: string(hash),
		}

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "password123",
		})
		w := httptest.NewRecorder()

		h.Login(w, req)

		body := testutil.AssertJSONResponse(t, w, http.StatusOK)
		token, _ := body["token"].(string)
		if token == "" {
			t.Fatal("Expected a token in the response")
		}
		user, _ := body["user"].(map[string]interface{})
		testutil.AssertEqual(t, user["username"].(string), "alice")
	})

	t.Run("wrong password", func(t *testing.T) {
		h, userRepo, _ := newAuthHandler()
		userRepo.Users["user-1"] = &domain.User{
			ID:           "user-1",
			Username:     "alice",
			PasswordHash: string(hash),
		}

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "nope",
		})
		w := httptest.NewRecorder()

		h.Login(w, req)
		testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("revokes the session", func(t *testing.T) {
		h, _, sessionRepo := newAuthHandler()
		session := &domain.Session{Token: "token-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
		sessionRepo.Sessions["token-1"] = session

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req = req.WithContext(middleware.WithSession(req.Context(), session))
		w := httptest.NewRecorder()

		h.Logout(w, req)

		testutil.AssertJSONContains(t, w, "success", true)
		if _, ok := sessionRepo.Sessions["token-1"]; ok {
			t.Error("Expected the session to be deleted")
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		h, _, _ := newAuthHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		w := httptest.NewRecorder()

		h.Logout(w, req)
		testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	h, userRepo, _ := newAuthHandler()
	userRepo.Users["user-1"] = &domain.User{
		ID:        "user-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}

	t.Run("returns the profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
		w := httptest.NewRecorder()

		h.Me(w, req)

		body := testutil.AssertJSONResponse(t, w, http.StatusOK)
		testutil.AssertEqual(t, body["username"].(string), "alice")
		testutil.AssertEqual(t, body["last_name"].(string), "Smith")
	})

	t.Run("unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(middleware.WithUserID(req.Context(), "user-404"))
		w := httptest.NewRecorder()

		h.Me(w, req)
		testutil.AssertStatusCode(t, w, http.StatusNotFound)
	})
}
