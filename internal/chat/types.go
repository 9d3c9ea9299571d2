package chat

import (
	"time"

	"github.com/hazemkhaled/raggate/internal/inference"
)

// Role distinguishes who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one persisted message of a conversation. User turns carry the
// asking principal's id and roles; assistant turns carry the citations.
// Timestamps are assigned by the store, not the orchestrator.
type Turn struct {
	ID        string             `json:"id"`
	ChatID    string             `json:"chat_id"`
	Role      Role               `json:"role"`
	Content   string             `json:"content"`
	UserID    string             `json:"uid,omitempty"`
	Roles     []string           `json:"roles,omitempty"`
	Sources   []inference.Source `json:"sources,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// AskRequest is the body of POST /chat/ask.
type AskRequest struct {
	Question string `json:"question"`
	ChatID   string `json:"chatId,omitempty"`
}

// AskResponse is both the synchronous reply to an ask and the payload of the
// "answer" push event, so the two channels always carry identical content.
type AskResponse struct {
	ChatID  string             `json:"chatId"`
	Answer  string             `json:"answer"`
	Sources []inference.Source `json:"sources"`
}

type typingEvent struct {
	ChatID string `json:"chatId"`
}

type errorEvent struct {
	ChatID string `json:"chatId"`
	Error  string `json:"error"`
}
