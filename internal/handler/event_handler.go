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

// EventHandler exposes the interest (RSVP) operations that gate chat
// access. Event creation and discovery belong to the event management
// service.
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Get returns the narrow event view
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		http.Error(w, `{"error":"Event ID required"}`, http.StatusBadRequest)
		return
	}

	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			http.Error(w, `{"error":"Event not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to retrieve event"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// AddInterest records the authenticated user's RSVP for an event
func (h *EventHandler) AddInterest(w http.ResponseWriter, r *http.Request) {
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

	if err := h.eventService.AddInterest(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			http.Error(w, `{"error":"Event not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to add interest"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// RemoveInterest deletes the authenticated user's RSVP for an event
func (h *EventHandler) RemoveInterest(w http.ResponseWriter, r *http.Request) {
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

	if err := h.eventService.RemoveInterest(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotInterested) {
			http.Error(w, `{"error":"No interest record"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to remove interest"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
