package recommendation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/movie-chat-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for recommendation operations
type Handler struct {
	service   Service
	scheduler TrainingScheduler
}

// NewHandler creates a new recommendation handler
func NewHandler(service Service, scheduler TrainingScheduler) *Handler {
	return &Handler{
		service:   service,
		scheduler: scheduler,
	}
}

// GetRecommendations handles getting recommendations for authenticated user
func (h *Handler) GetRecommendations(c *gin.Context) {
	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	limit := utils.ParseLimit(c.Query("limit"), defaultLimit, maxLimit)

	var movieID *int
	if raw := c.Query("movie_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie_id"})
			return
		}
		movieID = &id
	}

	response, err := h.service.GetRecommendations(c.Request.Context(), userID, limit, movieID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Train queues a retrain on the background worker and reports the models
// currently serving
func (h *Handler) Train(c *gin.Context) {
	h.scheduler.Trigger()
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "scheduled",
		"current": h.service.Status(),
	})
}

// Status reports what the models were trained on
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

// RegisterRoutes registers all recommendation routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	// All recommendation routes require authentication
	recommendations := router.Group("/recommendations")
	recommendations.Use(authMiddleware)
	{
		recommendations.GET("", h.GetRecommendations)
		recommendations.GET("/status", h.Status)
		recommendations.POST("/train", h.Train)
	}
}
