package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/feedback-board/backend/internal/auth"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type stubResolver map[string]auth.Session

func (s stubResolver) Resolve(_ context.Context, token string) (auth.Session, error) {
	session, ok := s[token]
	if !ok {
		return auth.Session{}, auth.ErrInvalidToken
	}
	return session, nil
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecureHeaders(), mw)
	r.GET("/", func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, session.User.Email)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	resolver := stubResolver{
		"good": {ID: uuid.New(), User: models.User{ID: uuid.New(), Email: "a@example.com"}},
	}

	tests := []struct {
		name     string
		mw       gin.HandlerFunc
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{"required with token", AuthMiddleware(resolver), "Bearer good", "", http.StatusOK, "a@example.com"},
		{"required with query token", AuthMiddleware(resolver), "", "?access_token=good", http.StatusOK, "a@example.com"},
		{"required without token", AuthMiddleware(resolver), "", "", http.StatusUnauthorized, `{"error":"Authentication required"}`},
		{"required with bad token", AuthMiddleware(resolver), "Bearer bad", "", http.StatusUnauthorized, `{"error":"Invalid or expired session"}`},
		{"required with wrong scheme", AuthMiddleware(resolver), "Basic good", "", http.StatusUnauthorized, `{"error":"Authentication required"}`},
		{"optional with token", OptionalAuth(resolver), "Bearer good", "", http.StatusOK, "a@example.com"},
		{"optional without token", OptionalAuth(resolver), "", "", http.StatusOK, "anonymous"},
		{"optional with bad token", OptionalAuth(resolver), "Bearer bad", "", http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.mw).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}
