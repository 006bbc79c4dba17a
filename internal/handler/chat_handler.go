package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/middleware"
	"github.com/kcdaviscode/huddll/internal/service"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles the chat REST surface: unread counts, mark-read,
// and history catch-up
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// UnreadCounts returns the per-event unread message map for the
// authenticated user. Events with zero unread are omitted.
func (h *ChatHandler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	counts, err := h.chatService.UnreadCounts(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"Failed to compute unread counts"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"unread_counts": counts,
	})
}

// MarkRead advances the user's last-read high-water mark for an event
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		http.Error(w, `{"error":"Event ID required"}`, http.StatusBadRequest)
		return
	}

	if err := h.chatService.MarkRead(r.Context(), userID, eventID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			http.Error(w, `{"error":"Event not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to mark chat read"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Messages returns recent chat history for an event over REST. Access is
// gated the same way as the websocket join.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		http.Error(w, `{"error":"Event ID required"}`, http.StatusBadRequest)
		return
	}

	identity := domain.Identity{ID: userID}
	if err := h.chatService.Authorize(r.Context(), identity, eventID); err != nil {
		http.Error(w, `{"error":"Not authorized for this event chat"}`, http.StatusForbidden)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	messages, err := h.chatService.Recent(r.Context(), eventID, limit)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve messages"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"messages": messages,
	})
}
