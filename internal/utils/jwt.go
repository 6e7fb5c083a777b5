package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextUserIDKey is where auth middleware stores the authenticated user id
const ContextUserIDKey = "user_id"

var ErrMissingUserID = errors.New("no user id in request")

// GetUserID returns the authenticated user id, preferring the value stored by
// the auth middleware and falling back to the bearer token claims.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, nil
		}
	}
	return GetUserIDFromToken(c)
}

// GetUserIDFromToken extracts user ID from JWT token in the request
// This assumes the JWT has already been validated by middleware
func GetUserIDFromToken(c *gin.Context) (uuid.UUID, error) {
	tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || tokenString == "" {
		return uuid.Nil, ErrMissingUserID
	}

	// Parse without verification since middleware already validated it
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrMissingUserID
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrMissingUserID
	}

	return uuid.Parse(userIDStr)
}
