package api

import (
	"net/http"
	"strings"

	"storefront/internal/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "authClaims"

// requireAuth parses the bearer token and stores its claims on the
// request context. Missing or invalid credentials end the request with
// 401.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		// Browsers cannot attach headers to websocket upgrades
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := h.jwter.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// optionalAuth parses the bearer token when one is present so public
// endpoints can widen their response for staff. It never rejects the
// request; anonymous and bad-token callers just get the public view.
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if claims, err := h.jwter.Parse(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// requireRole rejects authenticated callers whose role is not in the
// allowed set. Must run after requireAuth.
func (h *Handler) requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := mustClaims(c)
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

func mustClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
