package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const internalTokenHeader = "X-Internal-Token"

// InternalAuth guards operator endpoints with the shared internal token.
// A missing token is unauthorized; a wrong one is forbidden.
func InternalAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader(internalTokenHeader))
		if presented == "" {
			if header := c.GetHeader("Authorization"); header != "" {
				parts := strings.SplitN(header, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					presented = strings.TrimSpace(parts[1])
				}
			}
		}
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Internal token required."})
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access_denied", "error_description": "Internal token mismatch."})
			return
		}
		c.Next()
	}
}
