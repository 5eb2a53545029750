package handlers

import (
	"context"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

// Banner is served on GET /.
const Banner = "This is the updated Velociraptor chatbot backend with enhanced agent workflows."

// Agent is the chat pipeline as seen by the HTTP layer.
type Agent interface {
	Invoke(ctx context.Context, in model.TurnInput) (model.TurnReply, error)
	History(ctx context.Context, username string) ([]model.ChatMessage, error)
	EndSession(ctx context.Context, username string) error
}

type Handler struct {
	Agent Agent
}

func NewHandler(agent Agent) *Handler {
	return &Handler{Agent: agent}
}
