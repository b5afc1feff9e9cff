package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/feedback-board/backend/internal/auth"
)

const sessionKey = "session"

// Resolver turns a bearer token into a session. *auth.Service implements it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Session, error)
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter that browsers use for websocket upgrades.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}

// OptionalAuth attaches the session when a valid token is sent and lets
// anonymous requests through otherwise.
func OptionalAuth(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if session, err := r.Resolve(c.Request.Context(), token); err == nil {
				c.Set(sessionKey, session)
			}
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests without a valid session.
func AuthMiddleware(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		session, err := r.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session attached by OptionalAuth or AuthMiddleware.
func SessionFrom(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	session, ok := v.(auth.Session)
	return session, ok
}
