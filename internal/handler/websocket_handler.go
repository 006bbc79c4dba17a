package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/middleware"
	"github.com/kcdaviscode/huddll/internal/observability"
	"github.com/kcdaviscode/huddll/internal/service"
	"github.com/kcdaviscode/huddll/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WebSocketHandler runs the chat room handshake: credential resolution,
// the authorization gate, and the protocol upgrade. The bearer token
// rides the `token` query parameter because browsers cannot set headers
// on a websocket handshake.
type WebSocketHandler struct {
	registry    *ws.Registry
	chatService *service.ChatService
	authService *service.AuthService
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(registry *ws.Registry, chatService *service.ChatService,
	authService *service.AuthService, allowedOrigins string) *WebSocketHandler {
	origins := middleware.ParseOrigins(allowedOrigins)

	return &WebSocketHandler{
		registry:    registry,
		chatService: chatService,
		authService: authService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range origins {
					if o == origin || o == "*" {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleConnection authorizes and upgrades one chat room connection
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		http.Error(w, `{"error":"Event ID required"}`, http.StatusBadRequest)
		return
	}

	// Resolve the credential first; an invalid token becomes the
	// anonymous identity and is rejected by the gate, not here.
	token := r.URL.Query().Get("token")
	identity := h.authService.ResolveToken(r.Context(), token)

	if err := h.chatService.Authorize(r.Context(), identity, eventID); err != nil {
		// Terminate before the upgrade with no error payload, so a
		// probing client cannot tell which condition failed.
		observability.RoomJoinsDenied.WithLabelValues(denyReason(err)).Inc()
		slog.Info("room join denied",
			slog.String("event_id", eventID),
			slog.String("reason", denyReason(err)))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("event_id", eventID))
		return
	}

	// The request context dies when this handler returns; the session
	// lives until the connection drops, so it gets a fresh root context.
	session := ws.NewSession(context.Background(), h.registry, conn, identity, eventID, h.chatService)
	go session.Run()
}

func denyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "anonymous"
	case errors.Is(err, domain.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, domain.ErrNotInterested):
		return "no_interest"
	default:
		return "error"
	}
}
