package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kcdaviscode/huddll/internal/domain"
	"github.com/kcdaviscode/huddll/internal/middleware"
	"github.com/kcdaviscode/huddll/internal/service"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler serves the notification inbox
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the user's notifications, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	notifications, err := h.notificationService.List(r.Context(), userID, 50)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve notifications"}`, http.StatusInternalServerError)
		return
	}

	unread, err := h.notificationService.CountUnread(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"Failed to count unread notifications"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead marks one notification read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error":"Notification ID required"}`, http.StatusBadRequest)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, `{"error":"Notification not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to mark notification read"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// MarkAllRead marks every unread notification read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	count, err := h.notificationService.MarkAllRead(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"Failed to mark notifications read"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"marked":  count,
	})
}
