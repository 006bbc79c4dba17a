package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/testutil"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard bearer", "Bearer token-abc", "token-abc"},
		{"lowercase scheme", "bearer token-abc", "token-abc"},
		{"no header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
		{"surrounding whitespace", "Bearer   token-abc  ", "token-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			testutil.AssertEqual(t, BearerToken(req), tt.want)
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	sessionRepo := testutil.NewMockSessionRepository()
	session := &domain.Session{
		Token:     "token-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	sessionRepo.Sessions["token-1"] = session

	var gotUserID string
	var gotSession *domain.Session
	handler := Auth(sessionRepo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		gotSession, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertEqual(t, gotUserID, "user-1")
	if gotSession == nil || gotSession.Token != "token-1" {
		t.Errorf("Expected the session in the request context, got %+v", gotSession)
	}
}

func TestAuth_Rejections(t *testing.T) {
	sessionRepo := testutil.NewMockSessionRepository()
	sessionRepo.Sessions["token-expired"] = &domain.Session{
		Token:     "token-expired",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"unknown token", "Bearer token-bogus"},
		{"expired session", "Bearer token-expired"},
		{"malformed header", "token-without-scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := Auth(sessionRepo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
			testutil.AssertFalse(t, nextCalled, "rejected request must not reach the handler")
		})
	}
}

func TestContextHelpers(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, ok := GetUserID(req.Context())
		testutil.AssertFalse(t, ok, "no user id in an empty context")

		_, ok = GetSession(req.Context())
		testutil.AssertFalse(t, ok, "no session in an empty context")
	})

	t.Run("round trip", func(t *testing.T) {
		session := &domain.Session{Token: "token-1", UserID: "user-1"}
		ctx := WithUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "user-1")
		ctx = WithSession(ctx, session)

		userID, ok := GetUserID(ctx)
		testutil.AssertTrue(t, ok, "user id should be present")
		testutil.AssertEqual(t, userID, "user-1")

		got, ok := GetSession(ctx)
		testutil.AssertTrue(t, ok, "session should be present")
		testutil.AssertEqual(t, got.Token, "token-1")
	})
}
