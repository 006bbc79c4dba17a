// Package ws implements the real-time event chat layer: the room
// membership registry, the per-connection session, and the frame codec.
package ws

import (
	"log/slog"
	"sync"

	"github.com/kcdaviscode/huddll/internal/observability"
)

// Registry owns the process-wide mapping from event room to the set of
// connected sessions. It is created once at startup and passed explicitly
// to every session; room state does not survive a restart.
//
// A single mutex guards the room map and is held for the whole of each
// broadcast. Sends are non-blocking enqueues onto per-member buffers, so
// the critical section stays short while every member observes the same
// frame order within a room. Evicted members are closed only after the
// lock is released.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[*Session]bool
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Session]bool),
	}
}

// Join adds a session to a room's member set
func (r *Registry) Join(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[*Session]bool)
	}
	r.rooms[roomID][s] = true
	observability.RoomConnectionsActive.WithLabelValues(roomID).Inc()
	slog.Info("session joined room",
		slog.String("user", s.identity.Username),
		slog.String("event_id", roomID))
}

// Leave removes a session from a room's member set. Safe to call for a
// session that never joined or already left.
func (r *Registry) Leave(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := members[s]; !ok {
		return
	}
	delete(members, s)
	observability.RoomConnectionsActive.WithLabelValues(roomID).Dec()
	slog.Info("session left room",
		slog.String("user", s.identity.Username),
		slog.String("event_id", roomID))

	// Clean up empty room
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers a frame to every session currently in the room.
// A member whose send buffer is full is disconnected rather than allowed
// to stall delivery to the rest of the room.
func (r *Registry) Broadcast(roomID string, frame []byte) {
	r.broadcast(roomID, frame, nil)
}

// BroadcastExcept delivers a frame to every session in the room except one
func (r *Registry) BroadcastExcept(roomID string, frame []byte, except *Session) {
	r.broadcast(roomID, frame, except)
}

func (r *Registry) broadcast(roomID string, frame []byte, except *Session) {
	r.mu.Lock()

	var evicted []*Session
	for s := range r.rooms[roomID] {
		if s == except {
			continue
		}
		if s.trySend(frame) {
			observability.RoomFramesSent.WithLabelValues(roomID, "broadcast").Inc()
		} else {
			observability.RoomFramesDropped.WithLabelValues(roomID).Inc()
			slog.Warn("dropping slow room member",
				slog.String("user", s.identity.Username),
				slog.String("event_id", roomID))
			delete(r.rooms[roomID], s)
			observability.RoomConnectionsActive.WithLabelValues(roomID).Dec()
			evicted = append(evicted, s)
		}
	}
	if members, ok := r.rooms[roomID]; ok && len(members) == 0 {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	// Close outside the lock; a close can contend with the evictee's own
	// write and must not hold up delivery to other rooms.
	for _, s := range evicted {
		s.Close()
	}
}

// RoomSize returns the number of sessions currently in a room
func (r *Registry) RoomSize(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// Shutdown closes every connected session. Used during graceful server
// shutdown; the registry is not reusable afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0)
	for _, members := range r.rooms {
		for s := range members {
			sessions = append(sessions, s)
		}
	}
	r.rooms = make(map[string]map[*Session]bool)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	slog.Info("room registry shutdown complete", slog.Int("sessions_closed", len(sessions)))
}
