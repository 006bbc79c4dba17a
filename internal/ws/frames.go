package ws

import (
	"encoding/json"

	"github.com/kcdaviscode/huddll/internal/domain"
)

// InboundKind identifies a decoded client frame
type InboundKind int

const (
	// InboundUnknown covers well-formed frames with an unrecognized type
	InboundUnknown InboundKind = iota
	InboundChatMessage
	InboundTyping
)

// Inbound is one decoded client frame
type Inbound struct {
	Kind    InboundKind
	Message string // populated for InboundChatMessage
}

type rawInbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DecodeInbound parses one raw client frame. Frames that are not valid
// JSON objects return ok=false and must be dropped without a response.
func DecodeInbound(data []byte) (Inbound, bool) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, false
	}

	switch raw.Type {
	case "chat_message":
		return Inbound{Kind: InboundChatMessage, Message: raw.Message}, true
	case "typing":
		return Inbound{Kind: InboundTyping}, true
	default:
		return Inbound{Kind: InboundUnknown}, true
	}
}

type historyFrame struct {
	Type     string                `json:"type"`
	Messages []*domain.ChatMessage `json:"messages"`
}

type messageFrame struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message"`
}

type presenceFrame struct {
	Type string           `json:"type"`
	User domain.BasicUser `json:"user"`
}

// HistoryFrame encodes the one-shot replay sent on join, oldest first
func HistoryFrame(messages []*domain.ChatMessage) ([]byte, error) {
	if messages == nil {
		messages = []*domain.ChatMessage{}
	}
	return json.Marshal(historyFrame{Type: "chat_history", Messages: messages})
}

// ChatMessageFrame encodes a persisted message for broadcast
func ChatMessageFrame(m *domain.ChatMessage) ([]byte, error) {
	return json.Marshal(messageFrame{Type: "chat_message", Message: m})
}

// UserJoinFrame encodes a join announcement
func UserJoinFrame(u domain.BasicUser) ([]byte, error) {
	return json.Marshal(presenceFrame{Type: "user_join", User: u})
}

// UserLeaveFrame encodes a departure announcement
func UserLeaveFrame(u domain.BasicUser) ([]byte, error) {
	return json.Marshal(presenceFrame{Type: "user_leave", User: u})
}

// UserTypingFrame encodes a typing indicator
func UserTypingFrame(u domain.BasicUser) ([]byte, error) {
	return json.Marshal(presenceFrame{Type: "user_typing", User: u})
}
