package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is the persisted form of one session entry.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ToSchema converts the message for model input. Unknown roles yield nil.
func (m ChatMessage) ToSchema() *schema.Message {
	switch m.Role {
	case RoleUser:
		return schema.UserMessage(m.Content)
	case RoleAssistant:
		return schema.AssistantMessage(m.Content, nil)
	default:
		return nil
	}
}

type SessionRepository interface {
	// AddMessage appends a message to the user's session, creating it if needed
	AddMessage(ctx context.Context, username string, message ChatMessage) error

	// LoadHistory retrieves the full ordered session for a user
	LoadHistory(ctx context.Context, username string) (*SessionHistory, error)

	// ClearHistory removes all messages of a user's session
	ClearHistory(ctx context.Context, username string) error

	// GetMessageCount returns the number of messages in the user's session
	GetMessageCount(ctx context.Context, username string) (int, error)
}

// SessionHistory represents loaded session data.
type SessionHistory struct {
	Username string
	Messages []ChatMessage
}
