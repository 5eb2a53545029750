package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi/handlers"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi/middleware"
)

func NewRouter(agent handlers.Agent) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	h := handlers.NewHandler(agent)

	r.GET("/", h.Index)
	r.GET("/ping", h.Ping)

	r.POST("/chat", h.Chat)
	r.POST("/end_session", h.EndSession)
	r.POST("/get_chat_history", h.GetChatHistory)
	return r
}
