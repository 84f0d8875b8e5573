package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}

// Required enforces a valid bearer token and stores its claims in the context.
// The response never says why verification failed.
func Required(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := iss.Verify(BearerToken(c.GetHeader("Authorization")))
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(claimsKey, *claims)
		c.Next()
	}
}

// FromContext returns the claims stored by Required.
func FromContext(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// OnlyRoles rejects callers whose role is not listed. Must run after Required.
func OnlyRoles(message string, roles ...string) gin.HandlerFunc {
	if message == "" {
		message = "You are not allowed to perform this action"
	}
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if !claims.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": message})
			return
		}
		c.Next()
	}
}
