package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

type AuthHandler struct {
	auth  AuthService
	store Store
	log   *zap.Logger
}

func NewAuthHandler(auth AuthService, s Store, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, store: s, log: log}
}

// SignUp creates an unconfirmed account and starts email confirmation
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input models.SignUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.SignUp(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err, "User")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Check your email for a confirmation code",
		"user":    user,
	})
}

// Confirm verifies the emailed code
func (h *AuthHandler) Confirm(c *gin.Context) {
	var input models.ConfirmRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.Confirm(c.Request.Context(), input.Email, input.Code); err != nil {
		respondError(c, h.log, err, "User")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed, you can sign in now"})
}

// SignIn handles user login
func (h *AuthHandler) SignIn(c *gin.Context) {
	var input models.SignInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, session, err := h.auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, h.log, err, "User")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
		Profile:   h.profileOf(c, session.User),
	})
}

// SignOut ends the current session (PROTECTED)
func (h *AuthHandler) SignOut(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	if err := h.auth.SignOut(c.Request.Context(), session); err != nil {
		respondError(c, h.log, err, "Session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetSession returns the current session context (PROTECTED)
func (h *AuthHandler) GetSession(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         session.ID,
		"user":       session.User,
		"profile":    h.profileOf(c, session.User),
		"expires_at": session.ExpiresAt,
	})
}

// profileOf returns nil until the user's first write creates the profile.
func (h *AuthHandler) profileOf(c *gin.Context, user models.User) *models.Profile {
	p, err := h.store.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("failed to load profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		return nil
	}
	return &p
}
