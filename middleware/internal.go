package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MicroserviceAuthMiddleware guards internal endpoints with a shared key.
// An empty key disables the endpoints altogether.
func MicroserviceAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.Request.Header.Get("X-API-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
