package service

import (
	"context"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// EventService exposes the narrow event/interest operations the chat
// platform needs. Event creation and discovery live in the event
// management service.
type EventService struct {
	eventRepo domain.EventRepository
}

func NewEventService(eventRepo domain.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

func (s *EventService) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.eventRepo.GetByID(ctx, eventID)
}

// AddInterest records an RSVP, which is what gates chat access
func (s *EventService) AddInterest(ctx context.Context, eventID, userID string) error {
	exists, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrEventNotFound
	}
	return s.eventRepo.AddInterest(ctx, eventID, userID)
}

func (s *EventService) RemoveInterest(ctx context.Context, eventID, userID string) error {
	return s.eventRepo.RemoveInterest(ctx, eventID, userID)
}

func (s *EventService) IsInterested(ctx context.Context, eventID, userID string) (bool, error) {
	return s.eventRepo.IsInterested(ctx, eventID, userID)
}
