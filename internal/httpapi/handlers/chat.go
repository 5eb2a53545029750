package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi/middleware"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// Bodies may be form encoded or JSON; ShouldBind picks by Content-Type.
type chatReq struct {
	Username string `form:"username" json:"username"`
	Message  string `form:"message" json:"message"`
}

type usernameReq struct {
	Username string `form:"username" json:"username"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps err to its status. Client errors keep their message; anything
// else gets the generic reply so internal detail never leaves the process.
func fail(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	if status == http.StatusBadRequest {
		badRequest(c, errx.MessageOf(err))
		return
	}
	logx.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"response": nodes.FailureReply})
}

func (h *Handler) Index(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "username and message are required")
		return
	}

	reply, err := h.Agent.Invoke(c.Request.Context(), model.TurnInput{Username: req.Username, Message: req.Message})
	if err != nil {
		fail(c, err)
		return
	}
	if reply.Outcome == model.OutcomeFailed {
		c.JSON(http.StatusInternalServerError, gin.H{"response": reply.Content})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply.Content})
}

func (h *Handler) EndSession(c *gin.Context) {
	var req usernameReq
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		badRequest(c, "username is required")
		return
	}

	if err := h.Agent.EndSession(c.Request.Context(), username); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Session ended and chat history for %s is cleared.", username)})
}

func (h *Handler) GetChatHistory(c *gin.Context) {
	var req usernameReq
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		badRequest(c, "username is required")
		return
	}

	history, err := h.Agent.History(c.Request.Context(), username)
	if err != nil {
		fail(c, err)
		return
	}
	if history == nil {
		history = []model.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"chat_history": history})
}
