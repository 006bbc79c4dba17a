package ws

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxFrameSize   = 4096
	sendBufferSize = 256
	persistTimeout = 5 * time.Second

	// HistoryLimit is the number of persisted messages replayed on join
	HistoryLimit = 50
)

// MessageService is the slice of the chat service a session needs:
// appending to the durable message log and reading recent history.
type MessageService interface {
	Append(ctx context.Context, eventID string, author domain.Identity, text string) (*domain.ChatMessage, error)
	Recent(ctx context.Context, eventID string, limit int) ([]*domain.ChatMessage, error)
}

// Session owns one authorized WebSocket connection's lifetime in an event
// room: history replay, inbound frame dispatch, outbound delivery, and
// teardown. A session belongs to exactly one room.
type Session struct {
	registry *Registry
	conn     *websocket.Conn
	send     chan []byte
	identity domain.Identity
	eventID  string
	messages MessageService
	writeMu  sync.Mutex
	closed   atomic.Bool
	joined   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewSession creates a session for an already-authorized, upgraded
// connection. The caller is responsible for having run the authorization
// gate before upgrading.
func NewSession(ctx context.Context, registry *Registry, conn *websocket.Conn,
	identity domain.Identity, eventID string, messages MessageService) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)

	return &Session{
		registry: registry,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		identity: identity,
		eventID:  eventID,
		messages: messages,
		ctx:      sessionCtx,
		cancel:   cancel,
	}
}

// Run executes the joined-state entry actions and then serves the
// connection until it drops. Blocks; teardown runs on every exit path.
func (s *Session) Run() {
	defer s.teardown()

	s.registry.Join(s.eventID, s)
	s.joined.Store(true)

	// History is written directly, before the write pump starts draining
	// the send buffer, so it is always the first frame on the wire even
	// if a broadcast lands during replay.
	s.replayHistory()

	go s.writePump()

	s.announceJoin()
	s.readPump()
}

// Identity returns the resolved identity bound to this session
func (s *Session) Identity() domain.Identity {
	return s.identity
}

// EventID returns the event room this session belongs to
func (s *Session) EventID() string {
	return s.eventID
}

// Close terminates the connection. Idempotent; safe from any goroutine.
// Conn.Close may run concurrently with a writer, so this never waits
// behind an in-flight write to a dead peer.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
		s.conn.Close()
	}
}

// trySend enqueues a frame without blocking. Returns false when the
// session's buffer is full.
func (s *Session) trySend(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) teardown() {
	s.cancel()
	s.registry.Leave(s.eventID, s)

	if s.joined.Load() {
		frame, err := UserLeaveFrame(s.identity.Basic())
		if err != nil {
			slog.Error("failed to marshal user_leave frame",
				slog.String("error", err.Error()),
				slog.String("user", s.identity.Username))
		} else {
			// The session already left the room, so this reaches only
			// the remaining members.
			s.registry.Broadcast(s.eventID, frame)
		}
	}

	s.Close()
}

func (s *Session) replayHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()

	history, err := s.messages.Recent(ctx, s.eventID, HistoryLimit)
	if err != nil {
		slog.Error("failed to load chat history",
			slog.String("error", err.Error()),
			slog.String("event_id", s.eventID))
		return
	}

	frame, err := HistoryFrame(history)
	if err != nil {
		slog.Error("failed to marshal chat_history frame",
			slog.String("error", err.Error()),
			slog.String("event_id", s.eventID))
		return
	}

	if err := s.writeMessage(websocket.TextMessage, frame); err != nil {
		slog.Warn("failed to write chat history",
			slog.String("error", err.Error()),
			slog.String("user", s.identity.Username))
	}
}

func (s *Session) announceJoin() {
	frame, err := UserJoinFrame(s.identity.Basic())
	if err != nil {
		slog.Error("failed to marshal user_join frame",
			slog.String("error", err.Error()),
			slog.String("user", s.identity.Username))
		return
	}
	// Join announcements include the joining session itself; the client
	// treats its own user_join as confirmation the room accepted it.
	s.registry.Broadcast(s.eventID, frame)
}

func (s *Session) readPump() {
	s.conn.SetReadLimit(maxFrameSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("error", err.Error()),
			slog.String("user", s.identity.Username))
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error",
					slog.String("error", err.Error()),
					slog.String("user", s.identity.Username))
			}
			return
		}

		frame, ok := DecodeInbound(data)
		if !ok {
			// Malformed frames are dropped; the connection stays open.
			continue
		}

		switch frame.Kind {
		case InboundChatMessage:
			s.handleChatMessage(frame.Message)
		case InboundTyping:
			s.handleTyping()
		case InboundUnknown:
			// Unrecognized frame kinds are ignored.
		}
	}
}

func (s *Session) handleChatMessage(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()

	// Persist before broadcast: the stored order is the delivery order.
	msg, err := s.messages.Append(ctx, s.eventID, s.identity, text)
	if err != nil {
		slog.Error("failed to persist chat message",
			slog.String("error", err.Error()),
			slog.String("user", s.identity.Username),
			slog.String("event_id", s.eventID))
		return
	}

	frame, err := ChatMessageFrame(msg)
	if err != nil {
		slog.Error("failed to marshal chat_message frame",
			slog.String("error", err.Error()),
			slog.String("message_id", msg.ID))
		return
	}

	s.registry.Broadcast(s.eventID, frame)
}

func (s *Session) handleTyping() {
	frame, err := UserTypingFrame(s.identity.Basic())
	if err != nil {
		slog.Error("failed to marshal user_typing frame",
			slog.String("error", err.Error()),
			slog.String("user", s.identity.Username))
		return
	}
	// The typing user's own client must not render its own indicator.
	s.registry.BroadcastExcept(s.eventID, frame, s)
}

// writePump pumps frames from the send buffer to the connection
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.writeMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-s.send:
			if err := s.writeMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := s.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage writes to the connection in a thread-safe manner
func (s *Session) writeMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return websocket.ErrCloseSent
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}
