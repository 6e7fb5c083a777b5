package rating

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/movie-chat-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for rating operations
type Handler struct {
	service Service
}

// NewHandler creates a new rating handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RateMovie handles rating creation/update
func (h *Handler) RateMovie(c *gin.Context) {
	var req RateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	rating, err := h.service.RateMovie(userID, req.MovieID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rate movie"})
		}
		return
	}

	c.JSON(http.StatusOK, rating.ToResponse())
}

// GetRating handles getting the caller's rating for one movie
func (h *Handler) GetRating(c *gin.Context) {
	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	movieID, err := strconv.Atoi(c.Param("movieId"))
	if err != nil || movieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	rating, err := h.service.GetRating(userID, movieID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rating"})
		}
		return
	}

	c.JSON(http.StatusOK, rating.ToResponse())
}

// ListRatings returns all of the caller's ratings, newest first
func (h *Handler) ListRatings(c *gin.Context) {
	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	ratings, err := h.service.UserRatings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ratings"})
		return
	}

	out := make([]*RatingResponse, 0, len(ratings))
	for i := range ratings {
		out = append(out, ratings[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"ratings": out, "count": len(out)})
}

// DeleteRating handles rating deletion
func (h *Handler) DeleteRating(c *gin.Context) {
	userID, err := utils.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	movieID, err := strconv.Atoi(c.Param("movieId"))
	if err != nil || movieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	if err := h.service.DeleteRating(userID, movieID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rating"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
}

// RegisterRoutes registers all rating routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	ratings := router.Group("/ratings")
	ratings.Use(authMiddleware)
	{
		ratings.POST("", h.RateMovie)
		ratings.GET("", h.ListRatings)
		ratings.GET("/:movieId", h.GetRating)
		ratings.DELETE("/:movieId", h.DeleteRating)
	}
}
