package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"absensi/internal/apperr"
	"absensi/internal/policy"
)

const identityKey = "identity"

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the verified identity to the context.
func AuthMiddleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			abortUnauthenticated(c, "Missing or invalid Authorization header")
			return
		}
		id, err := tokens.Verify(tokenStr)
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
		"kind":    apperr.KindUnauthenticated,
		"message": message,
	}})
}

func SetIdentity(c *gin.Context, id policy.Identity) {
	c.Set(identityKey, id)
	c.Set("username", id.Username)
	c.Set("role", string(id.Role))
}

// IdentityFrom returns the identity attached by AuthMiddleware.
func IdentityFrom(c *gin.Context) (policy.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return policy.Identity{}, false
	}
	id, ok := v.(policy.Identity)
	return id, ok
}
