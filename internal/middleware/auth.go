package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"securelink/internal/service"
)

const identityKey = "identity"

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is missing or has another scheme.
func extractBearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// OptionalAuth resolves the caller identity and never rejects the request;
// bad or missing credentials make the caller anonymous.
func OptionalAuth(resolver service.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		c.Set(identityKey, resolver.Resolve(c.Request.Context(), token))
		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token of an existing account.
func RequireAuth(resolver service.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		identity := resolver.Resolve(c.Request.Context(), token)
		if identity.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by OptionalAuth or RequireAuth.
func IdentityFrom(c *gin.Context) service.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(service.Identity); ok {
			return identity
		}
	}
	return service.Anonymous
}

// OwnerID returns the account id of the caller; ok is false for anonymous callers.
func OwnerID(c *gin.Context) (string, bool) {
	return IdentityFrom(c).OwnerID()
}
