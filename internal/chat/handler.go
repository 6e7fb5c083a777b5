package chat

import (
	"net/http"

	"github.com/dustin/movie-chat-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 50

// Handler handles HTTP requests for chat operations
type Handler struct {
	service Service
}

// NewHandler creates a new chat handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SendMessage answers one chat message. Processing failures are reported in
// the reply body, not the status code.
func (h *Handler) SendMessage(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	c.JSON(http.StatusOK, h.service.ProcessMessage(c.Request.Context(), userID, req.Message))
}

// GetHistory returns the caller's most recent messages
func (h *Handler) GetHistory(c *gin.Context) {
	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	limit := utils.ParseLimit(c.Query("limit"), DefaultHistoryLimit, maxHistoryLimit)
	history, err := h.service.History(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat history"})
		return
	}
	if history == nil {
		history = []Message{}
	}

	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// RegisterRoutes registers all chat routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	chat := router.Group("/chat")
	chat.Use(authMiddleware)
	{
		chat.POST("", h.SendMessage)
		chat.GET("/history", h.GetHistory)
	}
}
