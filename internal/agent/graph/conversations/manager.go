package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
)

const defaultHistoryWindow = 10

type MessagesManager struct {
	sessionRepo   model.SessionRepository
	historyWindow int
}

func NewMessagesManager(sessionRepo model.SessionRepository, config model.ConversationConfig) *MessagesManager {
	window := config.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &MessagesManager{
		sessionRepo:   sessionRepo,
		historyWindow: window,
	}
}

// AppendUser records the inbound message before any model runs.
func (mm *MessagesManager) AppendUser(ctx context.Context, username, content string) error {
	if strings.TrimSpace(username) == "" {
		return errx.Invalid("username is required")
	}
	return mm.sessionRepo.AddMessage(ctx, username, model.UserMessage(content))
}

// SaveResponse appends the assistant reply that closes a turn.
func (mm *MessagesManager) SaveResponse(ctx context.Context, username, content string) error {
	return mm.sessionRepo.AddMessage(ctx, username, model.AssistantMessage(content))
}

// RecentHistory returns the trailing window the models are allowed to see.
func (mm *MessagesManager) RecentHistory(ctx context.Context, username string) ([]model.ChatMessage, error) {
	history, err := mm.sessionRepo.LoadHistory(ctx, username)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, mm.historyWindow), nil
}

// History returns the full session in conversation order.
func (mm *MessagesManager) History(ctx context.Context, username string) ([]model.ChatMessage, error) {
	history, err := mm.sessionRepo.LoadHistory(ctx, username)
	if err != nil {
		return nil, err
	}
	if history.Messages == nil {
		return []model.ChatMessage{}, nil
	}
	return history.Messages, nil
}

// EndSession clears the session and reports how many messages it held.
func (mm *MessagesManager) EndSession(ctx context.Context, username string) (int, error) {
	count, err := mm.sessionRepo.GetMessageCount(ctx, username)
	if err != nil {
		return 0, err
	}
	if err := mm.sessionRepo.ClearHistory(ctx, username); err != nil {
		return 0, err
	}
	return count, nil
}

// ToSchemaMessages converts stored messages for model input, skipping empty ones.
func ToSchemaMessages(messages []model.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if sm := m.ToSchema(); sm != nil {
			out = append(out, sm)
		}
	}
	return out
}

// ====================== Helper function ======================
func trimTail(messages []model.ChatMessage, max int) []model.ChatMessage {
	if len(messages) > max {
		messages = messages[len(messages)-max:]
	}
	result := make([]model.ChatMessage, len(messages))
	copy(result, messages)
	return result
}
