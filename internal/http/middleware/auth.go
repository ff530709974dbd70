package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/potensiadev/onesns.ai-sub001/internal/token"
)

const (
	userIDKey        = "sessionUserID"
	sessionClaimsKey = "sessionClaims"
)

// SessionAuth validates the bearer session token and attaches the
// authenticated user to the request context.
func SessionAuth(verifier *token.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
			return
		}
		claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid session token."})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(sessionClaimsKey, claims)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID attached by SessionAuth.
func GetUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

// GetSessionClaims exposes the full session claims to handlers.
func GetSessionClaims(c *gin.Context) (*token.SessionClaims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*token.SessionClaims)
	return claims, ok
}
