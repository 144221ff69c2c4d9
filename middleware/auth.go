package middleware

import (
	"net/http"
	"strings"

	"finora/api/auth"
	"finora/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserKey is the gin context key holding *models.SupabaseClaims.
const UserKey = "user"

// AuthMiddleware verifies the bearer token of every request.
func AuthMiddleware(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, v, extractToken(c.Request))
	}
}

// QueryTokenMiddleware verifies a token passed as the "token" query
// parameter. EventSource and browser websockets cannot set headers.
func QueryTokenMiddleware(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, v, c.DefaultQuery("token", ""))
	}
}

func authenticate(c *gin.Context, v auth.Verifier, tokenString string) {
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
		c.Abort()
		return
	}

	claims, err := v.Verify(tokenString)
	if err != nil {
		logger.Get().Debug("rejected token", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
		c.Abort()
		return
	}

	// Set the claims in the context
	c.Set(UserKey, claims)
	c.Next()
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
