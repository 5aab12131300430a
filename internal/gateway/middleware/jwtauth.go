package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"brewstock-system/internal/utils"
)

const (
	ContextUserID   = "auth_user_id"
	ContextUsername = "auth_username"
)

// JWTAuth rejects requests without a valid bearer token and exposes the
// caller's identity on the gin context for audit fields.
func JWTAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing bearer token",
			})
			return
		}

		claims, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserId)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// Actor returns the authenticated username, or "system" when the
// request reached a handler without auth (background jobs).
func Actor(c *gin.Context) string {
	if username, ok := c.Get(ContextUsername); ok {
		if s, ok := username.(string); ok && s != "" {
			return s
		}
	}
	return "system"
}
